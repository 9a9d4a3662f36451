// Package filemgr stores uploaded record images: originals plus a resized
// thumbnail, served from static/uploads.
package filemgr

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tabiji/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	_ "golang.org/x/image/webp"
)

const (
	uploadDir  = "static/uploads"
	thumbWidth = 480
	maxUpload  = 10 << 20 // 10 MiB
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload handles POST /api/images: one multipart "image" field in,
// {imageUrl, thumbUrl} out.
func Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.RespondWithError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "unreadable image")
		return
	}

	name := uuid.New().String()
	origPath := filepath.Join(uploadDir, name+".jpg")
	thumbPath := filepath.Join(uploadDir, name+"_thumb.jpg")

	if err := imaging.Save(img, origPath, imaging.JPEGQuality(85)); err != nil {
		log.Println("filemgr save:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(80)); err != nil {
		log.Println("filemgr thumb:", err)
		// Original is stored; fall back to it for the thumbnail.
		thumbPath = origPath
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"imageUrl": fmt.Sprintf("/%s", filepath.ToSlash(origPath)),
		"thumbUrl": fmt.Sprintf("/%s", filepath.ToSlash(thumbPath)),
	})
}
