package handler

import (
    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/emoji-feed/internal/api/middleware"
    "github.com/d60-Lab/emoji-feed/pkg/response"
)

type createPostRequest struct {
    Content string `json:"content" example:"🚀"`
}

// ListFeed 最新帖子（含作者资料）
// @Summary 获取 feed
// @Description 按创建时间倒序返回最多 100 条帖子，每条附带作者资料；任一作者无法解析时整体返回 500
// @Tags 帖子
// @Produce json
// @Success 200 {object} response.Response{data=[]model.FeedEntry}
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListFeed(c *gin.Context) {
    feed, err := h.postService.ListFeed(c.Request.Context())
    if err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, feed)
}

// CreatePost 发布 emoji 帖子
// @Summary 发布帖子
// @Description 内容必须为 1-255 个字符的 emoji；每个用户 60 秒滑动窗口内最多 3 次
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
    var req createPostRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, "invalid request body")
        return
    }
    post, err := h.postService.CreatePost(c.Request.Context(), middleware.UserID(c), req.Content)
    if err != nil {
        writeError(c, err)
        return
    }
    response.Created(c, post)
}
