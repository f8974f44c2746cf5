package blogpanel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) handleVerifyToken(c echo.Context) error {
	uid, err := a.authenticate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"uid": uid})
}

func (a *App) handleListContents(c echo.Context) error {
	pageSize := a.Config.PageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return errBadRequest("pageSize must be between 1 and 100")
		}
		pageSize = n
	}
	cursor := c.QueryParam("cursor")
	if cursor != "" {
		if _, err := decodeCursor(cursor); err != nil {
			return errBadRequest("invalid cursor")
		}
	}
	page, err := a.Store.ListPage(pageSize, cursor)
	if err != nil {
		return errStore(err)
	}
	if page.Items == nil {
		page.Items = []BlogRecord{}
	}
	return c.JSON(http.StatusOK, page)
}

type createContentRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Content       string   `json:"content"`
	Publish       bool     `json:"publish"`
	Tags          []string `json:"tags"`
	CoverImageURL string   `json:"cover_image_url"`
}

func (a *App) handleCreateContent(c echo.Context) error {
	var req createContentRequest
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	record, err := a.Store.Create(BlogRecord{
		Title:         req.Title,
		Description:   req.Description,
		Content:       req.Content,
		Publish:       req.Publish,
		Tags:          req.Tags,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		return errStore(err)
	}
	a.published.Invalidate()
	return c.JSON(http.StatusCreated, map[string]string{"id": record.ID})
}

func (a *App) handleUpdateContent(c echo.Context) error {
	var upd RecordUpdate
	if err := c.Bind(&upd); err != nil {
		return errBadRequest("invalid request body")
	}
	if _, err := a.Store.Update(c.Param("id"), upd); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errNotFound("content")
		}
		return errStore(err)
	}
	a.published.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleGetContent(c echo.Context) error {
	record, err := a.Store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errNotFound("content")
		}
		return errStore(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (a *App) handlePublished(c echo.Context) error {
	records, err := a.published.List()
	if err != nil {
		return errStore(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": records})
}
