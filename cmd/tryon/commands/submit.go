package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/capture"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/storage"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/telemetry"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
	"github.com/Hitansu2004/AI-TryOn-Studio/pkg/zip"
)

// ResultDownloader fetches a finished result image.
type ResultDownloader interface {
	DownloadResult(ctx context.Context, location string) ([]byte, string, error)
}

// SubmitAction submits a try-on job and, with --wait, follows it to the end.
func SubmitAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	req, err := buildRequest(ctx, cmd, appCtx.Config.MaxUploadBytes)
	if err != nil {
		return err
	}

	if !cmd.Bool("wait") {
		job, err := appCtx.Client.Submit(ctx, req)
		if err != nil {
			return err
		}
		printJob(job, appCtx.Config.DefaultLocale)
		return nil
	}

	opts := tryon.Options{
		PollInterval:     appCtx.Config.PollInterval,
		TickInterval:     appCtx.Config.ElapsedTick,
		PollTimeout:      appCtx.Config.TryOnAPITimeout,
		PollFailureLimit: appCtx.Config.PollFailureLimit,
		JobTimeout:       appCtx.Config.JobTimeout,
	}
	view, err := WaitForJob(ctx, appCtx.Client, req, opts, appCtx.Logger, func(v tryon.View) {
		fmt.Fprintf(os.Stderr, "\r%-10s %5.1f%%  %s", v.Phase, v.Progress, tryon.FormatElapsed(v.ElapsedSeconds))
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	printJob(view.Job, appCtx.Config.DefaultLocale)
	if view.Phase != tryon.PhaseSucceeded {
		msg, _ := view.Job.ErrorMessage()
		return &domain.JobFailedError{JobID: view.Job.ID, Message: msg}
	}
	return saveOutputs(ctx, cmd, appCtx.Client, req, view.Job)
}

func buildRequest(ctx context.Context, cmd *cli.Command, maxBytes int64) (domain.SubmitRequest, error) {
	req := domain.SubmitRequest{
		Product: domain.ProductSource{ProductID: strings.TrimSpace(cmd.String("product"))},
		Prompt:  strings.TrimSpace(cmd.String("prompt")),
	}
	switch {
	case cmd.String("camera-frame") != "":
		img, err := captureFrame(ctx, cmd.String("camera-frame"))
		if err != nil {
			return req, err
		}
		req.UserImage = img
	case cmd.String("user-image") != "":
		img, err := readImage(cmd.String("user-image"), maxBytes)
		if err != nil {
			return req, err
		}
		req.UserImage = img
	}
	if p := cmd.String("product-image"); p != "" {
		img, err := readImage(p, maxBytes)
		if err != nil {
			return req, err
		}
		req.Product.ProductImage = img
	}
	return req, req.Validate()
}

func readImage(p string, maxBytes int64) (*domain.ImageFile, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return capture.Validate(filepath.Base(p), data, maxBytes)
}

func captureFrame(ctx context.Context, p string) (*domain.ImageFile, error) {
	session, err := capture.Start(ctx, capture.StillCamera{Path: p}, capture.SessionOptions{})
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return session.Capture(ctx)
}

// terminalSignal closes done once the controller reports a terminal event.
type terminalSignal struct {
	done chan struct{}
}

func (s *terminalSignal) OnJobSubmitted(tryon.Event) {}
func (s *terminalSignal) OnJobSucceeded(tryon.Event) { s.close() }
func (s *terminalSignal) OnJobFailed(tryon.Event)    { s.close() }

func (s *terminalSignal) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// WaitForJob drives a controller through one submission and returns the
// final view. onTick, when set, is called once per second with the current
// view.
func WaitForJob(ctx context.Context, jobs tryon.JobService, req domain.SubmitRequest, opts tryon.Options, logger infra.Logger, onTick func(tryon.View)) (tryon.View, error) {
	signal := &terminalSignal{done: make(chan struct{})}
	ctrl := tryon.NewController(jobs, tryon.Notifiers{signal, telemetry.NewLogNotifier(logger)}, logger, opts)
	defer ctrl.Close()

	if _, err := ctrl.Submit(ctx, req); err != nil {
		return ctrl.View(), err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-signal.done:
			view := ctrl.View()
			if onTick != nil {
				onTick(view)
			}
			return view, nil
		case <-ticker.C:
			if onTick != nil {
				onTick(ctrl.View())
			}
		case <-ctx.Done():
			return ctrl.View(), ctx.Err()
		}
	}
}

func saveOutputs(ctx context.Context, cmd *cli.Command, dl ResultDownloader, req domain.SubmitRequest, job *domain.TryOnJob) error {
	outDir, zipPath := cmd.String("out-dir"), cmd.String("zip")
	if outDir == "" && zipPath == "" {
		return nil
	}
	location, _ := job.ResultURL()
	if location == "" {
		return errors.New("job finished without a result image")
	}
	data, mime, err := dl.DownloadResult(ctx, location)
	if err != nil {
		return fmt.Errorf("download result: %w", err)
	}
	ext := path.Ext(strings.SplitN(location, "?", 2)[0])

	if outDir != "" {
		store, err := storage.NewFileStore(outDir)
		if err != nil {
			return err
		}
		key, err := store.Write(ctx, storage.ResultKey(job.ID, ext), data)
		if err != nil {
			return err
		}
		full, _ := store.Path(key)
		fmt.Fprintf(os.Stdout, "saved %s\n", full)
	}

	if zipPath != "" {
		meta, _ := json.MarshalIndent(map[string]any{
			"jobId":          job.ID,
			"status":         job.Status(),
			"resultImageUrl": location,
			"productId":      req.Product.ProductID,
			"prompt":         req.Prompt,
		}, "", "  ")
		if ext == "" {
			ext = ".jpg"
		}
		assets := []zip.Asset{
			{Filename: "result" + ext, MIME: mime, Data: data},
			{Filename: "job.json", MIME: "application/json", Data: meta},
		}
		if req.UserImage != nil {
			assets = append(assets, zip.Asset{Filename: "user-" + req.UserImage.Name, MIME: req.UserImage.MIME, Data: req.UserImage.Data})
		}
		if img := req.Product.ProductImage; img != nil {
			assets = append(assets, zip.Asset{Filename: "product-" + img.Name, MIME: img.MIME, Data: img.Data})
		}
		archive, err := zip.ArchiveAssets(assets)
		if err != nil {
			return err
		}
		if err := os.WriteFile(zipPath, archive, 0o644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Fprintf(os.Stdout, "saved %s\n", zipPath)
	}
	return nil
}
