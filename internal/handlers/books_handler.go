package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bookcourier/server/internal/books"
	"github.com/bookcourier/server/internal/validation"
)

func registerBookRoutes(r *gin.Engine, cfg Config, v *validatorv10.Validate) {
	r.POST("/books", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateBookRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		status := req.BookStatus
		if status == "" {
			status = books.StatusUnpublished
		}

		book := books.Book{
			BookID:         uuid.NewString(),
			Name:           req.Name,
			Author:         req.Author,
			Description:    req.Description,
			CoverURL:       req.CoverURL,
			Price:          req.Price,
			BookStatus:     status,
			LibrarianEmail: req.LibrarianEmail,
		}
		if err := cfg.Books.Create(ctx, book); err != nil {
			cfg.Logger.Error().Err(err).Msg("book create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"bookId": book.BookID})
	})

	r.GET("/latest-books", func(c *gin.Context) {
		result, err := cfg.Books.Latest(c.Request.Context())
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("latest books listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/all-books", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

		result, total, err := cfg.Books.ListPublished(c.Request.Context(), limit, skip)
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("book listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "total": total})
	})

	r.GET("/books", func(c *gin.Context) {
		result, err := cfg.Books.ListByLibrarian(c.Request.Context(), c.Query("email"))
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("librarian book listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/all-books/:id", func(c *gin.Context) {
		book, err := cfg.Books.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("book fetch failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed"})
			return
		}
		if book == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusOK, book)
	})

	r.PATCH("/all-books/:id", func(c *gin.Context) {
		var req validation.UpdateBookRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		patch := map[string]interface{}{}
		if req.Name != nil {
			patch["name"] = *req.Name
		}
		if req.Author != nil {
			patch["author"] = *req.Author
		}
		if req.Description != nil {
			patch["description"] = *req.Description
		}
		if req.CoverURL != nil {
			patch["cover_url"] = *req.CoverURL
		}
		if req.Price != nil {
			patch["price"] = *req.Price
		}
		if req.BookStatus != nil {
			patch["book_status"] = *req.BookStatus
		}

		err := cfg.Books.Update(c.Request.Context(), c.Param("id"), patch)
		if errors.Is(err, books.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("book update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"modified": true})
	})
}
