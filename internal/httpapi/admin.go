package httpapi

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/export"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/media"
	"zonebourse-go/internal/model"
)

const (
	msgCreateFailed = "Erreur lors de l'ajout de la bourse"
	msgDeleteFailed = "Erreur lors de la suppression de la bourse"
	msgEditStub     = "Fonctionnalité de modification à implémenter"
)

func bourseID(r *http.Request) (model.BourseID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid bourse id %q", raw)
	}
	return model.BourseID(id), nil
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data := gridData(h.listing(r, sess), "adminBoursesGrid", true)
	data["Title"] = "Administration"
	h.render(w, r, http.StatusOK, "admin.html", data)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	upload := model.BourseUpload{
		Fields: model.BourseFields{
			Titre:                strings.TrimSpace(r.FormValue("titre")),
			Description:          strings.TrimSpace(r.FormValue("description")),
			Pays:                 strings.TrimSpace(r.FormValue("pays")),
			Universite:           strings.TrimSpace(r.FormValue("universite")),
			NiveauEtude:          strings.TrimSpace(r.FormValue("niveau_etude")),
			DomaineEtude:         strings.TrimSpace(r.FormValue("domaine_etude")),
			MontantBourse:        strings.TrimSpace(r.FormValue("montant_bourse")),
			DateLimite:           strings.TrimSpace(r.FormValue("date_limite")),
			Conditions:           r.FormValue("conditions"),
			ProcedurePostulation: r.FormValue("procedure_postulation"),
		},
	}
	if err := h.validate.Struct(upload.Fields); err != nil {
		sess.Flash.Error("Le titre est obligatoire")
		h.redirect(w, r, "/admin")
		return
	}
	if form := r.MultipartForm; form != nil {
		upload.Image = first(form.File["image"])
		upload.Video = first(form.File["video"])
		upload.ProcedureMedias = form.File["procedure_medias"]
	}

	result, err := h.catalog.Create(r.Context(), backendAuth(sess), upload)
	if err != nil || !result.Success {
		logger.Error().Err(err).Str("titre", upload.Fields.Titre).Msg("create bourse")
		sess.Flash.Error(failureMessage(err, result, msgCreateFailed))
	} else {
		sess.Flash.Success(orDefault(result.Message, "Bourse ajoutée avec succès"))
	}
	h.redirect(w, r, "/admin")
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Flash.Success(msgEditStub)
	h.redirect(w, r, "/admin")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	id, err := bourseID(r)
	if err != nil {
		sess.Flash.Error("Bourse introuvable")
		h.redirect(w, r, "/admin")
		return
	}

	result, err := h.catalog.Delete(r.Context(), backendAuth(sess), id)
	if err != nil || !result.Success {
		logger.Error().Err(err).Str("id", id.String()).Msg("delete bourse")
		sess.Flash.Error(failureMessage(err, result, msgDeleteFailed))
	} else {
		sess.Flash.Success(orDefault(result.Message, "Bourse supprimée avec succès"))
	}
	h.redirect(w, r, "/admin")
}

// previewFields lists the upload inputs and whether each takes many files.
var previewFields = []struct {
	name     string
	multiple bool
}{
	{"image", false},
	{"video", false},
	{"procedure_medias", true},
}

// handlePreviews renders the selected files back as inline previews. The
// optional field query parameter restricts the fragment to one input.
func (h *Handler) handlePreviews(w http.ResponseWriter, r *http.Request) {
	only := r.URL.Query().Get("field")

	var previews []media.Preview
	if form := r.MultipartForm; form != nil {
		for _, f := range previewFields {
			if only != "" && only != f.name {
				continue
			}
			built, err := media.Build(r.Context(), form.File[f.name], f.multiple)
			if err != nil {
				logger.Error().Err(err).Str("field", f.name).Msg("build previews")
				http.Error(w, "Prévisualisation impossible", http.StatusBadRequest)
				return
			}
			previews = append(previews, built...)
		}
	}

	if err := h.renderer.Previews(w, only, previews); err != nil {
		logger.Error().Err(err).Msg("render previews")
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	listing, err := h.catalog.List(r.Context(), backendAuth(sess), r.URL.Query().Get("q"))
	if err != nil {
		logger.Error().Err(err).Msg("export bourses")
		sess.Flash.Error(apiclient.Message(err, msgLoadBourses))
		h.redirect(w, r, "/admin")
		return
	}

	book, err := export.Workbook(listing.Bourses)
	if err != nil {
		logger.Error().Err(err).Msg("build workbook")
		sess.Flash.Error("Erreur lors de l'export")
		h.redirect(w, r, "/admin")
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bourses.xlsx"`)
	if err := book.Write(w); err != nil {
		logger.Error().Err(err).Msg("write workbook")
	}
}

func first(files []*multipart.FileHeader) *multipart.FileHeader {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
