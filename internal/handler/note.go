package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/note-keeper/internal/queue"
	"github.com/iliyamo/note-keeper/internal/repository"
	queue_publisher "github.com/iliyamo/note-keeper/internal/service"
	"github.com/iliyamo/note-keeper/internal/utils"
)

// maxTitleLen bounds the note title, matching the VARCHAR(500) column.
const maxTitleLen = 500

// NoteHandler bundles dependencies for the note endpoints. Every route here
// sits behind JWTAuth, so the acting user id is always present in context.
type NoteHandler struct {
	Notes *repository.NoteRepo
}

func NewNoteHandler(n *repository.NoteRepo) *NoteHandler {
	if n == nil {
		panic("nil repository passed to NewNoteHandler")
	}
	return &NoteHandler{Notes: n}
}

// getUserID extracts the authenticated user's id placed in context by the
// JWT middleware.
func getUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok && id > 0
}

// ----- DTOs -----

type noteReq struct {
	Title     string   `json:"title"`
	Content   *string  `json:"content"`
	Tags      []string `json:"tags"`
	IsPrivate bool     `json:"isPrivate"`
	Password  *string  `json:"password"`
}

type noteResp struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	Tags      []string  `json:"tags"`
	IsPrivate bool      `json:"isPrivate"`
	Password  *string   `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	OwnerID   uint64    `json:"ownerId"`
}

// pageResp is the envelope for paginated listings: one bounded slice of the
// ordered result set plus its position and the overall count.
type pageResp struct {
	Content       []noteResp `json:"content"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int64      `json:"totalPages"`
}

func toNoteResp(n repository.Note) noteResp {
	return noteResp{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      utils.DecodeTags(n.Tags),
		IsPrivate: n.IsPrivate,
		Password:  n.Password,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		OwnerID:   n.OwnerID,
	}
}

// validateNoteReq enforces the request invariants shared by create and
// update: title required and bounded.
func validateNoteReq(req noteReq) string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if len(req.Title) > maxTitleLen {
		return "title must not exceed 500 characters"
	}
	return ""
}

// List handles GET /notes. A blank search term lists everything the owner
// has; otherwise titles and contents are filtered by a case-insensitive
// substring match. Either way notes arrive most-recently-updated first.
func (h *NoteHandler) List(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size < 1 {
		size = 10
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	notes, total, err := h.Notes.Search(ctx, repository.NoteSearchQuery{
		OwnerID:  ownerID,
		Term:     c.QueryParam("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		c.Logger().Errorf("notes: search: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	content := make([]noteResp, 0, len(notes))
	for _, n := range notes {
		content = append(content, toNoteResp(n))
	}
	totalPages := (total + int64(size) - 1) / int64(size)

	return c.JSON(http.StatusOK, pageResp{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	})
}

// Get handles GET /notes/:id. A note that does not exist and a note owned by
// someone else both answer 404.
func (h *NoteHandler) Get(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Notes.GetByID(ctx, id, ownerID)
	if err != nil {
		if err == repository.ErrNoteNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toNoteResp(n))
}

// Create handles POST /notes.
func (h *NoteHandler) Create(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateNoteReq(req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Notes.Create(ctx, ownerID, repository.NoteInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		IsPrivate: req.IsPrivate,
		Password:  req.Password,
	})
	if err != nil {
		c.Logger().Errorf("notes: create: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create note failed"})
	}

	publishActivity(n, queue.ActionCreated)
	return c.JSON(http.StatusOK, toNoteResp(n))
}

// Update handles PUT /notes/:id with full-replace semantics: every mutable
// field is overwritten from the request, so omitted fields become empty.
func (h *NoteHandler) Update(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateNoteReq(req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Notes.Update(ctx, id, ownerID, repository.NoteInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		IsPrivate: req.IsPrivate,
		Password:  req.Password,
	})
	if err != nil {
		if err == repository.ErrNoteNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		c.Logger().Errorf("notes: update: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update note failed"})
	}

	publishActivity(n, queue.ActionUpdated)
	return c.JSON(http.StatusOK, toNoteResp(n))
}

// Delete handles DELETE /notes/:id. Existence and ownership are checked
// atomically by the conditional delete; nonexistent and foreign notes answer
// the same 404.
func (h *NoteHandler) Delete(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notes.Delete(ctx, id, ownerID); err != nil {
		if err == repository.ErrNoteNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		c.Logger().Errorf("notes: delete: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete note failed"})
	}

	publishActivity(repository.Note{ID: id, OwnerID: ownerID}, queue.ActionDeleted)
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

// Tags handles GET /notes/tags: the flattened union of tag values across the
// owner's notes.
func (h *NoteHandler) Tags(c echo.Context) error {
	ownerID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tags, err := h.Notes.DistinctTags(ctx, ownerID)
	if err != nil {
		c.Logger().Errorf("notes: tags: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, tags)
}

// publishActivity emits an audit event for the note mutation. Publishing is
// best-effort and runs off the request path; broker trouble is logged by the
// publisher and never fails the request.
func publishActivity(n repository.Note, action string) {
	ev := queue.NoteActivityEvent{
		NoteID:     n.ID,
		OwnerID:    n.OwnerID,
		Title:      n.Title,
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishNoteActivity(ctx, ev)
	}()
}
