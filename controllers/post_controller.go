package controllers

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-posts/store"
	"github.com/snap-point/social-posts/utils"
)

// HandlerFunc serves one route. A returned error becomes a 500 response.
type HandlerFunc func(c *gin.Context, params url.Values, posts store.PostTable) error

type PostController struct{}

func NewPostController() *PostController {
	return &PostController{}
}

// postID is a numeric id parameter. Integral is false for values such as
// 1.5 that can never match a row.
type postID struct {
	Value    int64
	Integral bool
}

// GetPosts godoc
// @Summary List posts
// @Description Lists every visible post, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts.get [get]
func (pc *PostController) GetPosts(c *gin.Context, _ url.Values, posts store.PostTable) error {
	list, err := selectPosts(posts, store.Visible())
	if err != nil {
		return err
	}
	return utils.SendJSON(c, list)
}

// GetPostByID godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts.getById [get]
func (pc *PostController) GetPostByID(c *gin.Context, params url.Values, posts store.PostTable) error {
	id, ok := requireID(c, params)
	if !ok {
		return nil
	}
	if !id.Integral {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}

	return sendFirst(c, posts, store.PostByID(id.Value, false))
}

// CreatePost godoc
// @Summary Create a post
// @Description Stores content as a new post and returns it as read back
// @Tags posts
// @Produce json
// @Param content query string true "Post content"
// @Success 200 {object} models.Post
// @Router /posts.post [post]
func (pc *PostController) CreatePost(c *gin.Context, params url.Values, posts store.PostTable) error {
	content, ok := requireParam(c, params, "content")
	if !ok {
		return nil
	}

	newID, err := posts.Insert(content)
	if err != nil {
		return err
	}

	return sendFirst(c, posts, store.PostByID(newID, false))
}

// EditPost godoc
// @Summary Edit a post
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Param content query string true "New content"
// @Success 200 {object} models.Post
// @Router /posts.edit [post]
func (pc *PostController) EditPost(c *gin.Context, params url.Values, posts store.PostTable) error {
	id, ok := requireID(c, params)
	if !ok {
		return nil
	}
	content, ok := requireParam(c, params, "content")
	if !ok {
		return nil
	}
	if !id.Integral {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}

	if _, err := posts.Update(store.PostByID(id.Value, false), store.Changes{Content: &content}); err != nil {
		return err
	}

	return sendFirst(c, posts, store.PostByID(id.Value, false))
}

// DeletePost godoc
// @Summary Soft-delete a post
// @Description Hides a visible post and echoes the removed row
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts.delete [post]
func (pc *PostController) DeletePost(c *gin.Context, params url.Values, posts store.PostTable) error {
	return pc.setRemoved(c, params, posts, true)
}

// RestorePost godoc
// @Summary Restore a post
// @Description Makes a soft-deleted post visible again
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts.restore [post]
func (pc *PostController) RestorePost(c *gin.Context, params url.Values, posts store.PostTable) error {
	return pc.setRemoved(c, params, posts, false)
}

func (pc *PostController) setRemoved(c *gin.Context, params url.Values, posts store.PostTable, removed bool) error {
	id, ok := requireID(c, params)
	if !ok {
		return nil
	}
	if !id.Integral {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}

	affected, err := posts.Update(store.PostByID(id.Value, !removed), store.Changes{Removed: &removed})
	if err != nil {
		return err
	}

	list, err := selectPosts(posts, store.PostByID(id.Value, removed))
	if err != nil {
		return err
	}

	if len(list) == 0 || affected == 0 {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}
	return utils.SendJSON(c, list[0])
}

// LikePost godoc
// @Summary Like a post
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts.like [post]
func (pc *PostController) LikePost(c *gin.Context, params url.Values, posts store.PostTable) error {
	return pc.adjustLikes(c, params, posts, 1)
}

// DislikePost godoc
// @Summary Dislike a post
// @Description Takes one like away. The counter may go below zero
// @Tags posts
// @Produce json
// @Param id query number true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts.dislike [post]
func (pc *PostController) DislikePost(c *gin.Context, params url.Values, posts store.PostTable) error {
	return pc.adjustLikes(c, params, posts, -1)
}

// adjustLikes only answers 404 when the first read misses. If the post
// disappears after the write the reply is a 200 with an empty JSON body.
func (pc *PostController) adjustLikes(c *gin.Context, params url.Values, posts store.PostTable, delta int64) error {
	id, ok := requireID(c, params)
	if !ok {
		return nil
	}
	if !id.Integral {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}

	current, err := selectPosts(posts, store.PostByID(id.Value, false))
	if err != nil {
		return err
	}
	if len(current) == 0 {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}

	// The delta is applied in SQL so concurrent likes on the same post add up.
	if _, err := posts.Update(store.PostByID(id.Value, false), store.Changes{LikesDelta: delta}); err != nil {
		return err
	}

	list, err := selectPosts(posts, store.PostByID(id.Value, false))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		utils.SendResponse(c, utils.Response{
			Headers: map[string]string{"Content-Type": "application/json"},
		})
		return nil
	}
	return utils.SendJSON(c, list[0])
}

func selectPosts(posts store.PostTable, where store.Where) ([]utils.Record, error) {
	result, err := posts.Select(where)
	if err != nil {
		return nil, err
	}
	return utils.MapRows(result.Rows, result.Columns), nil
}

// sendFirst replies with the first matching post, or 404 when none match.
func sendFirst(c *gin.Context, posts store.PostTable, where store.Where) error {
	list, err := selectPosts(posts, where)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		utils.SendStatus(c, http.StatusNotFound)
		return nil
	}
	return utils.SendJSON(c, list[0])
}

func requireParam(c *gin.Context, params url.Values, name string) (string, bool) {
	if !params.Has(name) {
		utils.SendStatus(c, http.StatusBadRequest)
		return "", false
	}
	return params.Get(name), true
}

func requireID(c *gin.Context, params url.Values) (postID, bool) {
	raw, ok := requireParam(c, params, "id")
	if !ok {
		return postID{}, false
	}

	id, err := parseID(raw)
	if err != nil {
		utils.SendStatus(c, http.StatusBadRequest)
		return postID{}, false
	}
	return id, true
}

// parseID reads raw as a decimal number. Surrounding whitespace is ignored
// and a blank value counts as zero.
func parseID(raw string) (postID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return postID{Integral: true}, nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if errors.Is(err, strconv.ErrRange) {
		// out of range still parses: tiny values round to zero, huge ones
		// match nothing
		if n == 0 {
			return postID{Integral: true}, nil
		}
		return postID{}, nil
	}
	if err != nil {
		return postID{}, err
	}
	if math.IsNaN(n) {
		return postID{}, strconv.ErrSyntax
	}
	if math.IsInf(n, 0) {
		// only the spelled-out form is a number; "inf" is not
		if strings.TrimLeft(raw, "+-") != "Infinity" {
			return postID{}, strconv.ErrSyntax
		}
		return postID{}, nil
	}

	if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
		return postID{}, nil
	}
	return postID{Value: int64(n), Integral: true}, nil
}
