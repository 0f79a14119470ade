package handler

import (
	"net/http"

	"github.com/prontto/backend/pkg/apperrors"
	"github.com/prontto/backend/pkg/pagination"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps domain errors onto their HTTP status; everything else is
// a 500 with the raw message.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// pathUUID parses a :param path segment, replying 400 on garbage. The bool is
// false when the response has already been written.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+param+": must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	params := pagination.Parse(c)
	return params.Page, params.Limit
}

// optionalUUIDQuery parses an optional uuid query param; a missing or
// malformed value yields nil.
func optionalUUIDQuery(c *gin.Context, name string) *uuid.UUID {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
