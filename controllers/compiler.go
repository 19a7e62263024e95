package controllers

import (
	"CodeCollab/services/execution"
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LocalRunner compiles and runs code on this host
type LocalRunner interface {
	Supports(language string) bool
	RunOnce(ctx context.Context, language, source, input string) (execution.Result, error)
}

// RemoteRunner runs code on an external execution API
type RemoteRunner interface {
	Enabled() bool
	Run(ctx context.Context, language, source, input string) (execution.Result, error)
}

type executeCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Input    string `json:"input"`
}

// @Summary Runs code once
// @Description Compiles and runs the code with the given stdin and returns the whole output. Languages the server cannot compile are sent to the remote runner.
// @Tags compiler
// @Accept json
// @Produce json
// @Param request body executeCodeRequest true "Code, language (default cpp) and stdin"
// @Success 200 {object} object{output=string,error=bool}
// @Failure 400 {object} object{output=string,error=bool}
// @Failure 502 {object} object{output=string,error=bool}
// @Router /api/compiler/execute [post]
func ExecuteCode(local LocalRunner, remote RemoteRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req executeCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"output": "Invalid request body", "error": true})
			return
		}
		if strings.TrimSpace(req.Code) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"output": "Code cannot be empty", "error": true})
			return
		}
		language := strings.ToLower(strings.TrimSpace(req.Language))
		if language == "" {
			language = "cpp"
		}

		var (
			res execution.Result
			err error
		)
		if local.Supports(language) || remote == nil || !remote.Enabled() {
			res, err = local.RunOnce(c.Request.Context(), language, req.Code, req.Input)
		} else {
			res, err = remote.Run(c.Request.Context(), language, req.Code, req.Input)
		}

		if errors.Is(err, execution.ErrRemoteUnavailable) {
			log.Printf("[EXEC-ERROR] Remote run of %s: %v", language, err)
			c.JSON(http.StatusBadGateway, gin.H{"output": "Remote execution service unavailable", "error": true})
			return
		}
		// Local failures are already part of the output
		c.JSON(http.StatusOK, gin.H{"output": res.Output, "error": res.IsError})
	}
}
