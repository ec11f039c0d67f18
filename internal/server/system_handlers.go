package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/atheril/caseflow/internal/database"
	"github.com/atheril/caseflow/internal/modules/jobs"
)

// SystemStatusResponse is the payload for /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	DataDirMB     float64 `json:"data_dir_mb"`
	WarehouseOK   bool    `json:"warehouse_ok"`
	JobHistoryOK  bool    `json:"job_history_ok"`
}

// SystemHandlers serves operational status endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	dataDir      string
	warehouseDB  *database.DB
	jobHistoryDB *database.DB
	jobsRepo     *jobs.Repository
	startedAt    time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	warehouseDB *database.DB,
	jobHistoryDB *database.DB,
	jobsRepo *jobs.Repository,
) *SystemHandlers {
	return &SystemHandlers{
		log:          log.With().Str("handler", "system").Logger(),
		dataDir:      dataDir,
		warehouseDB:  warehouseDB,
		jobHistoryDB: jobHistoryDB,
		jobsRepo:     jobsRepo,
		startedAt:    time.Now(),
	}
}

// HandleSystemStatus returns process and database health. Unlike /health,
// this runs the full integrity check on both databases.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPct,
		RAMPercent:    ramPct,
		DataDirMB:     h.getDirSize(h.dataDir),
		WarehouseOK:   h.warehouseDB.HealthCheck(r.Context()) == nil,
		JobHistoryOK:  h.jobHistoryDB.HealthCheck(r.Context()) == nil,
	}
	if !resp.WarehouseOK || !resp.JobHistoryOK {
		resp.Status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleJobRuns returns recent background run history
// GET /api/system/jobs?job=warmup&limit=20
func (h *SystemHandlers) HandleJobRuns(w http.ResponseWriter, r *http.Request) {
	job := r.URL.Query().Get("job")
	if job == "" {
		job = "warmup"
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.jobsRepo.Recent(job, limit)
	if err != nil {
		h.log.Error().Err(err).Str("job", job).Msg("Failed to load job runs")
		http.Error(w, "failed to load job runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []jobs.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":  job,
		"runs": runs,
	})
}

// getSystemStats calculates CPU and RAM usage percentages. Uses a 100ms CPU
// sampling window to keep the status endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDirSize returns the total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to measure data directory")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
