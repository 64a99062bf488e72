package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/demand"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/andresuchdata/autotransfer/backend-go/internal/service"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TransferHandler struct {
	transferService *service.TransferService
	basePath        string
}

// NewTransferHandler builds the handler. basePath is the mount point of the
// transfer routes, used to build download links.
func NewTransferHandler(transferService *service.TransferService, basePath string) *TransferHandler {
	return &TransferHandler{transferService: transferService, basePath: strings.TrimSuffix(basePath, "/")}
}

type groupResponse struct {
	service.GroupSummary
	Download string `json:"download"`
}

type transferResponse struct {
	*service.TransferSummary
	Groups           []groupResponse `json:"groups"`
	AllDownload      string          `json:"all_download"`
	ShortageDownload string          `json:"shortage_download"`
}

// CreateTransfer runs one reconciliation from a multipart form
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	summary, err := h.transferService.Run(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(summary))
}

// GetFile streams a staged workbook. index is a partition index or "all".
func (h *TransferHandler) GetFile(c *gin.Context) {
	name := c.Param("index")
	if name != service.AllArtifact {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file index must be a non-negative integer or \"all\""})
			return
		}
		name = service.FileArtifact(i)
	}
	h.serveArtifact(c, name)
}

// GetShortages returns the plain text shortage log of a run
func (h *TransferHandler) GetShortages(c *gin.Context) {
	h.serveArtifact(c, service.ShortageArtifact)
}

func (h *TransferHandler) serveArtifact(c *gin.Context, name string) {
	runID := c.Param("run_id")
	artifact, ok, err := h.transferService.Artifact(c.Request.Context(), runID, name)
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Str("artifact", name).Msg("failed to load artifact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load artifact"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found or expired"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(artifact.Name)))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *TransferHandler) parseRequest(c *gin.Context) (service.TransferRequest, error) {
	var req service.TransferRequest

	inv, err := formSource(c, "inventory")
	if err != nil {
		return req, err
	}
	req.Inventory = inv
	req.InventoryDriveID = strings.TrimSpace(c.PostForm("inventory_drive_id"))

	if req.Plan, err = formSource(c, "plan"); err != nil {
		return req, err
	}

	if req.Demand, err = formDemand(c); err != nil {
		return req, err
	}
	req.PartitionBy = strings.TrimSpace(c.PostForm("partition_by"))
	return req, nil
}

var errDemandRequired = errors.New("demand is required: upload a demand file or send demand_json or demand_text")

// badRequest marks client errors that carry no domain kind.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// Upload sources named in error details.
const (
	sourceInventory = "inventory"
	sourceDemand    = "demand"
)

// uploadError tags a domain error with the upload it came from.
type uploadError struct {
	source string
	err    error
}

func (u *uploadError) Error() string { return u.source + ": " + u.err.Error() }
func (u *uploadError) Unwrap() error { return u.err }

func formDemand(c *gin.Context) ([]domain.DemandLine, error) {
	lines, err := parseDemand(c)
	if err != nil && domain.ErrorKind(err) != "" {
		return nil, &uploadError{source: sourceDemand, err: err}
	}
	return lines, err
}

func parseDemand(c *gin.Context) ([]domain.DemandLine, error) {
	src, err := formSource(c, "demand")
	if err != nil {
		return nil, err
	}
	if src != nil {
		return demand.FromSource(*src)
	}
	if raw := c.PostForm("demand_json"); strings.TrimSpace(raw) != "" {
		lines, err := demand.FromJSON([]byte(raw))
		if err != nil {
			return nil, badRequest{err}
		}
		return lines, nil
	}
	if raw := c.PostForm("demand_text"); strings.TrimSpace(raw) != "" {
		lines, err := demand.FromText(raw)
		if err != nil && domain.ErrorKind(err) == "" {
			return nil, badRequest{err}
		}
		return lines, err
	}
	return nil, badRequest{errDemandRequired}
}

// formSource reads an optional uploaded file; a missing field yields nil.
func formSource(c *gin.Context, field string) (*sheet.Source, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest{fmt.Errorf("invalid %s upload: %w", field, err)}
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) (*sheet.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return &sheet.Source{Name: fh.Filename, Data: data}, nil
}

func (h *TransferHandler) fail(c *gin.Context, err error) {
	var bad badRequest
	switch {
	case domain.ErrorKind(err) != "":
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   err.Error(),
			"kind":    domain.ErrorKind(err),
			"details": errorDetails(err),
		})
	case errors.As(err, &bad),
		errors.Is(err, service.ErrInventoryRequired),
		errors.Is(err, service.ErrDriveDisabled),
		errors.Is(err, partition.ErrUnknownStrategy):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("transfer run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transfer run failed"})
	}
}

// errorDetails adds the failing upload to the domain details. Run errors
// that carry no upload tag come from the inventory.
func errorDetails(err error) map[string]interface{} {
	details := domain.ErrorDetails(err)
	if details == nil {
		details = map[string]interface{}{}
	}
	details["source"] = sourceInventory
	var upload *uploadError
	if errors.As(err, &upload) {
		details["source"] = upload.source
	}
	return details
}

func (h *TransferHandler) respond(summary *service.TransferSummary) transferResponse {
	runPath := h.basePath + "/" + summary.RunID
	resp := transferResponse{
		TransferSummary:  summary,
		Groups:           make([]groupResponse, len(summary.Groups)),
		AllDownload:      runPath + "/files/" + service.AllArtifact,
		ShortageDownload: runPath + "/shortages",
	}
	for i, g := range summary.Groups {
		resp.Groups[i] = groupResponse{GroupSummary: g, Download: fmt.Sprintf("%s/files/%d", runPath, g.Index)}
	}
	return resp
}
