package server

import (
	"context"
	"net/http"

	"chromastudio/internal/handlers"
	applog "chromastudio/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	routes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/healthz", handlers.Health},
		{"/app/api/colors", handlers.ColorResource},
		{"/app/api/colors/", handlers.ColorResource},
		{"/app/api/materials", handlers.MaterialResource},
		{"/app/api/materials/", handlers.MaterialResource},
		{"/app/api/calc/", handlers.CalcResource},
		{"/app/calc/", handlers.MixingSheet},
		{"/app/api/color/convert", handlers.ConvertColor},
		{"/app/api/color/delta", handlers.DeltaE},
		{"/app/api/color/pantone", handlers.PantoneMatch},
		{"/app/api/color/swatch", handlers.SwatchUpload},
		{"/app/tools/import-formula", handlers.ToolsImportFormula},
		{"/app/preferences/update", handlers.UpdatePreferences},
	}
	applog.Debug(context.Background(), "registering http routes")
	for _, route := range routes {
		mux.HandleFunc(route.path, route.handler)
		applog.Debug(context.Background(), "route registered", "path", route.path)
	}
	return mux
}
