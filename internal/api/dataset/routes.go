package dataset

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts dataset endpoints on the router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/datasets", func(r chi.Router) {
		r.Post("/", h.UploadDataset)
		r.Get("/", h.ListDatasets)

		r.Route("/{dataset_id}", func(r chi.Router) {
			r.Get("/", h.GetDataset)
			r.Delete("/", h.DeleteDataset)
			r.Get("/export", h.ExportDataset)
		})
	})
}
