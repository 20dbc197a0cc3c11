package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"realty_backoffice/errs"
	"realty_backoffice/models"
	"realty_backoffice/services"
)

const maxCoverSize = 20 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListingFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	listings, err := s.deps.Listings.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listings)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.deps.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if errs.Is(err, errs.KindNotFound) {
		writeJSONError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var in models.InquiryInput
	if err := decodeBody(r, "inquiry", &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.deps.Inquiries.Submit(r.Context(), in); err != nil {
		if errs.Is(err, errs.KindInvalidInput) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeInquiryFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Inquiry submitted successfully",
	})
}

func (s *Server) writeInquiryFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.deps.Logger.Error("inquiry submission failed", "path", r.URL.Path, "error", err)
	respondWithJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Error submitting inquiry",
		"message": err.Error(),
	})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeBody(r, "scrape", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.deps.Scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleAdminListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.deps.Listings.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listings)
}

func (s *Server) handleAdminGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.deps.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var in models.ListingInput
	if err := decodeBody(r, "listing", &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.deps.Listings.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var in models.ListingInput
	if err := decodeBody(r, "listing", &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.deps.Listings.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Listings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		s.writeError(w, r, errs.E(errs.KindInvalidInput, "invalid multipart form", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, r, errs.InvalidInput("image file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize+1))
	if err != nil {
		s.writeError(w, r, errs.E(errs.KindInvalidInput, "could not read image", err))
		return
	}
	if len(data) > maxCoverSize {
		s.writeError(w, r, errs.InvalidInput("image larger than %d bytes", maxCoverSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	listing, err := s.deps.Listings.SetCover(r.Context(), chi.URLParam(r, "id"), data, header.Filename, contentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleImportListing(w http.ResponseWriter, r *http.Request) {
	var req services.ImportRequest
	if err := decodeBody(r, "import", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.deps.Importer.Import(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleRefreshListings(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Importer.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	inquiries, err := s.deps.Inquiries.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inquiries)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Inquiries.UnreadCount(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (s *Server) handleMarkInquiryRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Inquiries.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteInquiry(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Inquiries.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseListingFilter(r *http.Request) (models.ListingFilter, error) {
	q := r.URL.Query()
	filter := models.ListingFilter{
		Status: q.Get("status"),
		City:   q.Get("city"),
	}

	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return filter, errs.InvalidInput("invalid status %q", filter.Status)
	}

	var err error
	if filter.MinPrice, err = floatParam(q.Get("minPrice"), "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = floatParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func floatParam(val, name string) (float64, error) {
	if val == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return 0, errs.InvalidInput("invalid %s %q", name, val)
	}
	return f, nil
}

func intParam(val, name string) (int, error) {
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, errs.InvalidInput("invalid %s %q", name, val)
	}
	return i, nil
}
