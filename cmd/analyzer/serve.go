package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharoA/document-analyzer-sub000/internal/registry"
	"github.com/sharoA/document-analyzer-sub000/internal/taskmodel"
	"github.com/sharoA/document-analyzer-sub000/pkg/sse"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (upload + progress streaming)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
}

// serve binds an HTTP listener exposing the upload and progress-stream
// surface described informally at spec §6 (upload/progress/cancel are
// transport concerns; this is one concrete, out-of-scope-but-necessary
// binding of them onto the orchestrator and hub built above).
func (a *app) serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.background.Release()
	go a.binder.Run(runCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", a.handleUpload)
	mux.HandleFunc("GET /tasks/{id}", a.handleGetTask)
	mux.HandleFunc("GET /tasks/{id}/events", a.handleEvents)
	mux.HandleFunc("POST /tasks/{id}/cancel", a.handleCancel)
	mux.HandleFunc("POST /tasks/{id}/stages/{stage}", a.handleRunStage)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	slog.Info("listening", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}
	return srv.ListenAndServe()
}

func (a *app) handleUpload(w http.ResponseWriter, r *http.Request) {
	executionMode := taskmodel.ModeAutomatic
	if r.URL.Query().Get("execution_mode") == "manual" {
		executionMode = taskmodel.ModeManual
	}
	fileName := r.URL.Query().Get("file_name")
	if fileName == "" {
		fileName = "upload"
	}

	dir, err := os.MkdirTemp("", "analyzer-upload-*")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	storagePath := filepath.Join(dir, fileName)
	f, err := os.Create(storagePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	size, err := io.Copy(f, r.Body)
	f.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := a.hub.CreateTask(r.Context(), fileName, size, filepath.Ext(fileName), storagePath, executionMode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if executionMode == taskmodel.ModeAutomatic {
		taskID := task.TaskID
		if err := a.background.Submit(func() {
			if err := a.orchestrator.RunAll(context.Background(), taskID); err != nil {
				slog.Warn("pipeline run failed", "task_id", taskID, "err", err)
			}
		}); err != nil {
			slog.Warn("background pool rejected pipeline run", "task_id", taskID, "err", err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": task.TaskID})
}

func (a *app) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := a.hub.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *app) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := a.orchestrator.Cancel(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleRunStage(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	stage := taskmodel.StageName(r.PathValue("stage"))
	if err := a.orchestrator.RunStage(r.Context(), taskID, stage); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams progress events for one task over SSE. It binds
// the task to a freshly minted channel id so a reconnect re-routes future
// events to the new connection (P5) without duplicating delivery to the
// stale one.
func (a *app) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	taskID := r.PathValue("id")
	channelID := newChannelID()
	a.binder.Bind(taskID, channelID)
	defer a.binder.Unbind(taskID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	enc := sse.NewEncoder()
	out := make(chan registry.Event, 16)
	unsub := a.hub.Subscribe(taskID, func(evt registry.Event) {
		select {
		case out <- evt:
		default:
		}
	})
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-out:
			if bound, ok := a.binder.ChannelFor(taskID); !ok || bound != channelID {
				continue // rebound elsewhere: this connection stops receiving (P5)
			}
			payload, _ := json.Marshal(evt)
			msg, err := enc.Encode(&sse.Message{Event: "progress", Data: payload})
			if err != nil {
				continue
			}
			w.Write(msg)
			flusher.Flush()
		}
	}
}

func newChannelID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b) + "-" + time.Now().UTC().Format("150405")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
