package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
)

const uploadFormField = "file"

// Multipart parts beyond this are spilled to temp files by the standard library.
const maxUploadMemory = 8 << 20

type UploadRequest struct {
	Filename string `json:"filename" validate:"valid_filename"`
}

func SetupUpload(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator, maxUploadBytes int64) {
	router.POST("/upload", handleUpload(service, logger, validator, maxUploadBytes))
}

func handleUpload(service *index.Service, baseLogger logger.Logger, validator *validation.Validator, maxUploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := requestLogger(c, baseLogger)

		if maxUploadBytes > 0 {
			if c.Request.ContentLength > maxUploadBytes {
				log.Warn("upload rejected, request too large", "content_length", c.Request.ContentLength)
				writeError(c, http.StatusRequestEntityTooLarge, tooLargeMessage(maxUploadBytes))
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		}

		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			if isTooLarge(err) {
				log.Warn("upload rejected, request too large", "err", err.Error())
				writeError(c, http.StatusRequestEntityTooLarge, tooLargeMessage(maxUploadBytes))
				return
			}
			log.Warn("could not parse upload form", "err", err.Error())
			writeError(c, http.StatusBadRequest, messageNoFileUploaded)
			return
		}

		fileHeader := pickFile(c.Request.MultipartForm)
		if fileHeader == nil {
			log.Warn("upload request carried no file")
			writeError(c, http.StatusBadRequest, messageNoFileUploaded)
			return
		}

		request := UploadRequest{Filename: filepath.Base(fileHeader.Filename)}
		if err := validator.Validate(request); err != nil {
			log.Warn("could not validate upload request", "filename", fileHeader.Filename, "err", err.Error())
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("could not open uploaded file", "filename", request.Filename, "err", err.Error())
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}
		defer file.Close()

		result, err := service.Upload(c.Request.Context(), request.Filename, file, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			log.Error("error processing upload", "filename", request.Filename, "err", err.Error())
			writeError(c, statusFor(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Document %s uploaded and indexed successfully", result.Name)})
	}
}

// pickFile prefers the "file" field and otherwise takes the first file by field name.
func pickFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil || len(form.File) == 0 {
		return nil
	}
	if headers := form.File[uploadFormField]; len(headers) > 0 {
		return headers[0]
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if headers := form.File[field]; len(headers) > 0 {
			return headers[0]
		}
	}
	return nil
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

func tooLargeMessage(maxUploadBytes int64) string {
	return fmt.Sprintf("File exceeds the maximum upload size of %d bytes", maxUploadBytes)
}
