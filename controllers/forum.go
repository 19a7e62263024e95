package controllers

import (
	"CodeCollab/middleware"
	models "CodeCollab/models/postgres"
	"CodeCollab/services/forum"
	"CodeCollab/services/storage"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

func forumError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forum.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, forum.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, forum.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// @Summary Lists all problems
// @Tags problems
// @Produce json
// @Success 200 {array} postgres.Problem
// @Router /api/problems [get]
func ListProblems(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		problems, err := svc.ListProblems(c.Request.Context())
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, problems)
	}
}

// @Summary Gives info of a problem
// @Tags problems
// @Produce json
// @Param id path string true "Problem id"
// @Success 200 {object} postgres.Problem
// @Failure 404 {object} object{error=string}
// @Router /api/problems/{id} [get]
func GetProblem(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		problem, err := svc.GetProblem(c.Request.Context(), c.Param("id"))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, problem)
	}
}

// @Summary Posts a problem
// @Description Multipart form with title, description and any number of attached files
// @Tags problems
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param photo formData file false "Photo"
// @Param file formData file false "Document"
// @Success 200 {object} postgres.Problem
// @Failure 400 {object} object{error=string}
// @Failure 413 {object} object{error=string}
// @Router /api/problems [post]
// @Security ApiKeyAuth
func CreateProblem(svc *forum.Service, files *storage.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var attachments []models.Attachment
		if form, err := c.MultipartForm(); err == nil {
			fields := make([]string, 0, len(form.File))
			for field := range form.File {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				for _, header := range form.File[field] {
					f, err := header.Open()
					if err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file " + header.Filename})
						return
					}
					att, err := files.Save(header.Filename, f)
					f.Close()
					if errors.Is(err, storage.ErrTooLarge) {
						c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
						return
					}
					if err != nil {
						log.Printf("[FORUM-ERROR] Storing %s: %v", header.Filename, err)
						c.JSON(http.StatusInternalServerError, gin.H{"error": "Error storing attachment"})
						return
					}
					attachments = append(attachments, att)
				}
			}
		}

		problem, err := svc.CreateProblem(c.Request.Context(), c.PostForm("title"), c.PostForm("description"),
			middleware.CurrentUser(c), attachments)
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, problem)
	}
}

type solutionRequest struct {
	ProblemID string `json:"problemId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// @Summary Posts a solution
// @Tags solutions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param request body solutionRequest true "Solution"
// @Success 200 {object} postgres.Solution
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/solutions [post]
// @Security ApiKeyAuth
func CreateSolution(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req solutionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		sol, err := svc.CreateSolution(c.Request.Context(), req.ProblemID, middleware.CurrentUser(c), req.Title, req.Content)
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, sol)
	}
}

// @Summary Lists the solutions of a problem
// @Tags solutions
// @Produce json
// @Param problemId path string true "Problem id"
// @Success 200 {array} postgres.Solution
// @Router /api/solutions/problem/{problemId} [get]
func SolutionsByProblem(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		solutions, err := svc.SolutionsByProblem(c.Request.Context(), c.Param("problemId"))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, solutions)
	}
}

// @Summary Lists the solutions of a user
// @Tags solutions
// @Produce json
// @Param username path string true "Author"
// @Success 200 {array} postgres.Solution
// @Router /api/solutions/user/{username} [get]
func SolutionsByUser(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		solutions, err := svc.SolutionsByUser(c.Request.Context(), c.Param("username"))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, solutions)
	}
}

// @Summary Gives info of a solution
// @Tags solutions
// @Produce json
// @Param solutionId path string true "Solution id"
// @Success 200 {object} postgres.Solution
// @Failure 404 {object} object{error=string}
// @Router /api/solutions/{solutionId} [get]
func GetSolution(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sol, err := svc.GetSolution(c.Request.Context(), c.Param("solutionId"))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, sol)
	}
}

// @Summary Edits a solution
// @Description Only the author can edit
// @Tags solutions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param solutionId path string true "Solution id"
// @Param request body solutionRequest true "New title and content"
// @Success 200 {object} postgres.Solution
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/solutions/{solutionId} [put]
// @Security ApiKeyAuth
func UpdateSolution(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req solutionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		sol, err := svc.UpdateSolution(c.Request.Context(), c.Param("solutionId"), middleware.CurrentUser(c), req.Title, req.Content)
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, sol)
	}
}

// @Summary Accepts a solution
// @Description Only the author of the problem can accept
// @Tags solutions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param solutionId path string true "Solution id"
// @Success 200 {object} postgres.Solution
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/solutions/{solutionId}/accept [post]
// @Security ApiKeyAuth
func AcceptSolution(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sol, err := svc.AcceptSolution(c.Request.Context(), c.Param("solutionId"), middleware.CurrentUser(c))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, sol)
	}
}

// @Summary Deletes a solution
// @Tags solutions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param solutionId path string true "Solution id"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/solutions/{solutionId} [delete]
// @Security ApiKeyAuth
func DeleteSolution(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteSolution(c.Request.Context(), c.Param("solutionId"), middleware.CurrentUser(c)); err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Solution deleted successfully"})
	}
}

// @Summary Lists learning resources
// @Tags resources
// @Produce json
// @Param category query string false "Only this category"
// @Success 200 {array} postgres.Resource
// @Router /api/resources [get]
func ListResources(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Query("category")
		if category == "" {
			category = c.Param("category")
		}
		resources, err := svc.ListResources(c.Request.Context(), category)
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, resources)
	}
}

// @Summary Gives info of a resource
// @Tags resources
// @Produce json
// @Param id path string true "Resource id"
// @Success 200 {object} postgres.Resource
// @Failure 404 {object} object{error=string}
// @Router /api/resources/{id} [get]
func GetResource(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := svc.GetResource(c.Request.Context(), c.Param("id"))
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary Creates or replaces a resource
// @Description POST creates a resource, PUT /api/resources/{id} replaces an existing one
// @Tags resources
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param request body postgres.Resource true "Resource"
// @Success 200 {object} postgres.Resource
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/resources [post]
// @Security ApiKeyAuth
func SaveResource(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r models.Resource
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		r.ID = c.Param("id")
		saved, err := svc.SaveResource(c.Request.Context(), &r)
		if err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// @Summary Deletes a resource
// @Tags resources
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path string true "Resource id"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /api/resources/{id} [delete]
// @Security ApiKeyAuth
func DeleteResource(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteResource(c.Request.Context(), c.Param("id")); err != nil {
			forumError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
	}
}
