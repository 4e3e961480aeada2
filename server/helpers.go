package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"github.com/leebenson/conform"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/server/response"
)

// decode reads a JSON body into v, normalises its strings and validates
// its binding tags.
func decode(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return errs.New("request body is required", http.StatusBadRequest)
	}
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		return errs.New("invalid JSON: "+err.Error(), http.StatusBadRequest)
	}
	if err := conform.Strings(v); err != nil {
		return errs.New(err.Error(), http.StatusBadRequest)
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return errs.FromValidation(err)
	}
	return nil
}

// idParam parses a numeric path parameter; anything else is a 404.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response404(c)
		return 0, false
	}
	return uint(id), true
}

func response404(c *gin.Context) {
	respondAndAbort(c, "", http.StatusNotFound, nil, errs.ErrNotFound)
}

// respondErr renders err with the status it carries.
func respondErr(c *gin.Context, err error) {
	_ = c.Error(err)
	response.JSON(c, "", errs.Status(err), nil, err)
}
