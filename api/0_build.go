package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/rowindex/api/apitablev1"
	"github.com/fulldump/rowindex/service"
)

func Build(s service.Servicer, version string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	apitablev1.BuildV1Table(v1).
		WithInterceptors(
			injectServicer(s),
		)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check /openapi.json",
			}
		}))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	openapi := boxopenapi.Spec(b)
	openapi.Info.Title = "rowindex"
	openapi.Info.Description = "Tables of JSON rows with secondary indexes and key range queries."
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		openapi.Servers = []boxopenapi.Server{
			{
				Url: "http://" + r.Host,
			},
		}

		return openapi
	})

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apitablev1.SetServicer(ctx, s))
		}
	}
}
