package api

import (
	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/lysyi3m/edgeboard/app/database"
	"github.com/lysyi3m/edgeboard/app/preview"
	"github.com/lysyi3m/edgeboard/app/render"
	"github.com/lysyi3m/edgeboard/app/site"
)

type GeneratorInterface interface {
	Run(info render.FeedInfo, cards []content.Card) (string, error)
}

var _ GeneratorInterface = (*render.FeedGenerator)(nil)

type Handler struct {
	app       *site.App
	prefRepo  *database.PreferenceRepository
	generator GeneratorInterface
	previewer *preview.Previewer
	siteDir   string
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}
