package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rating_engine/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/programs", func(r chi.Router) {
				r.Post("/", handler(s.postV1Program))
				r.Get("/", handler(s.getV1Programs))
				r.Get("/{id}", handler(s.getV1Program))
				r.Put("/{id}", handler(s.putV1Program))
				r.Delete("/{id}", handler(s.deleteV1Program))

				r.Post("/{id}/versions", handler(s.postV1ProgramVersion))
				r.Get("/{id}/versions", handler(s.getV1ProgramVersions))
				r.Get("/{id}/published", handler(s.getV1ProgramPublished))

				r.Post("/{id}/test-cases", handler(s.postV1ProgramTestCase))
			})

			r.Route("/versions/{id}", func(r chi.Router) {
				r.Get("/", handler(s.getV1Version))
				r.Post("/steps", handler(s.postV1VersionStep))
				r.Get("/steps", handler(s.getV1VersionSteps))
				r.Post("/validate", handler(s.postV1VersionValidate))
				r.Post("/publish", handler(s.postV1VersionPublish))
				r.Post("/clone", handler(s.postV1VersionClone))
				r.Post("/test-cases/run", handler(s.postV1VersionRunTestCases))
			})

			r.Route("/steps/{id}", func(r chi.Router) {
				r.Put("/", handler(s.putV1Step))
				r.Delete("/", handler(s.deleteV1Step))
			})

			r.Route("/calc", func(r chi.Router) {
				r.Post("/rating", handler(s.postV1CalcRating))
				r.Post("/ilf", handler(s.postV1CalcILF))
				r.Post("/experience-mod", handler(s.postV1CalcExperienceMod))
				r.Post("/schedule", handler(s.postV1CalcSchedule))
				r.Post("/batch", handler(s.postV1CalcBatch))
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, asFailure(err))
		}
	}
}
