package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/edgeboard/app/database"
	"github.com/lysyi3m/edgeboard/app/preview"
	"github.com/lysyi3m/edgeboard/app/probe"
	"github.com/lysyi3m/edgeboard/app/render"
	"github.com/lysyi3m/edgeboard/app/site"
	"github.com/lysyi3m/edgeboard/app/theme"
)

const previewFormField = "files"

var newDropFeed = render.FeedInfo{
	Title:       "New Drop",
	Description: "Latest projects, experiments and notes",
	Path:        "/feed.xml",
}

func NewHandler(app *site.App, prefRepo *database.PreferenceRepository, siteDir string) *Handler {
	return &Handler{
		app:       app,
		prefRepo:  prefRepo,
		generator: render.NewFeedGenerator(),
		previewer: preview.NewPreviewer(preview.MaxFiles),
		siteDir:   siteDir,
	}
}

// GetPage renders the page routed at the request path and falls back to
// static files from the site directory.
func (h *Handler) GetPage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}

	requestPath := c.Request.URL.Path

	html, err := h.app.Render(c.Request.Context(), requestPath, c.GetString(visitorKey))
	if err == nil {
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	if !errors.Is(err, site.ErrPageNotFound) {
		slog.Error("Page render error", "path", requestPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if file, ok := h.staticFile(requestPath); ok {
		c.File(file)
		return
	}

	c.Status(http.StatusNotFound)
}

func (h *Handler) GetScript(c *gin.Context) {
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", render.CardsScript())
}

func (h *Handler) GetFeed(c *gin.Context) {
	cards := h.app.Pipeline.NewDrop(c.Request.Context())

	rss, err := h.generator.Run(newDropFeed, cards)
	if err != nil {
		slog.Error("RSS generation error", "feed", newDropFeed.Path, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(cards)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"instance":  h.app.ID,
		"booted":    h.app.Booted(),
	}

	if h.prefRepo != nil {
		if prefCount, err := h.prefRepo.GetPreferenceCount(); err == nil {
			health["preferences"] = prefCount
		}
	}

	health["loaded_pages"] = h.app.Pages.GetPageCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetTheme(c *gin.Context) {
	current, err := h.app.Themes.Current(c.GetString(visitorKey))
	if err != nil {
		slog.Warn("Theme read failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"theme": current, "next": current.Next()})
}

func (h *Handler) ToggleTheme(c *gin.Context) {
	visitor := c.GetString(visitorKey)

	applied, err := h.app.Themes.Toggle(visitor)
	if err != nil {
		slog.Error("Theme toggle failed", "visitor", visitor, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": applied})
}

func (h *Handler) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing theme"})
		return
	}

	if _, err := theme.Parse(req.Theme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied, err := h.app.Themes.Set(c.GetString(visitorKey), req.Theme)
	if err != nil {
		slog.Error("Theme update failed", "theme", req.Theme, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": applied})
}

func (h *Handler) GetNewDrop(c *gin.Context) {
	cards := h.app.Pipeline.NewDrop(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"items": cards,
		"total": len(cards),
	})
}

func (h *Handler) GetDetected(c *gin.Context) {
	name := c.Param("convention")

	conv, ok := probe.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "Unknown convention",
			"conventions": probe.Names(),
		})
		return
	}

	found, err := h.app.Pipeline.Detect(c.Request.Context(), name)
	if err != nil {
		slog.Error("Probe error", "convention", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Probe failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"convention": conv.Name,
		"items":      found,
		"total":      len(found),
		"hints":      conv.Hints(),
	})
}

func (h *Handler) CreatePreviews(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart form data"})
		return
	}

	headers := form.File[previewFormField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	inputs, err := preview.FromMultipart(headers, preview.MaxFiles)
	if err != nil {
		slog.Error("Upload read error", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	result := h.previewer.Run(inputs)
	slog.Debug("Previews created", "previews", len(result.Previews), "skipped", result.Skipped)

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIListPages(c *gin.Context) {
	pages := h.app.Pages.GetPages()

	list := make([]map[string]interface{}, 0, len(pages))
	for _, page := range pages {
		mounts := make([]string, 0, len(page.Mounts))
		for _, m := range page.Mounts {
			mounts = append(mounts, m.Name)
		}

		list = append(list, map[string]interface{}{
			"name":     page.Name,
			"route":    page.Route,
			"template": page.Template,
			"mounts":   mounts,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"pages": list,
		"total": len(list),
	})
}

func (h *Handler) APIGetPage(c *gin.Context) {
	name := c.Param("name")

	page, err := h.app.Pages.GetPage(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) APIReloadPage(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing page name parameter"})
		return
	}

	page, err := h.app.Pages.LoadPage(name)
	if err != nil {
		slog.Error("Error reloading page definition", "page", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload page definition",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Page definition reloaded",
		"page": gin.H{
			"name":   page.Name,
			"route":  page.Route,
			"mounts": len(page.Mounts),
		},
	})
}

// staticFile maps a request path to a regular file inside the site
// directory. Directory paths resolve to their index.html.
func (h *Handler) staticFile(requestPath string) (string, bool) {
	local := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	if local == "" {
		local = "index.html"
	}
	local = filepath.FromSlash(local)
	if !filepath.IsLocal(local) {
		return "", false
	}

	file := filepath.Join(h.siteDir, local)
	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		if info, err = os.Stat(file); err != nil {
			return "", false
		}
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return file, true
}
