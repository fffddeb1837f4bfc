// Package capture runs the periodic detection duty: take the newest camera
// frame, store it, find bees, cut a crop per bee, look for varroa on every
// crop and persist the results.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beecam/internal/config"
	"beecam/internal/dto"
	"beecam/internal/geometry"
	"beecam/internal/logger"
	"beecam/internal/model"
	"beecam/internal/service/camera"
	"beecam/internal/service/led"
	"beecam/internal/state"
	"beecam/internal/storage"
)

// FrameSource hands out the newest camera JPEG.
type FrameSource interface {
	Acquire(ctx context.Context) ([]byte, error)
}

// Imager performs the pixel work on RGB frames.
type Imager interface {
	Decode(data []byte) (model.Frame, error)
	Resize(frame model.Frame, region geometry.Box, w, h int) (model.Frame, error)
	Crop(frame model.Frame, region geometry.Box) (model.Frame, error)
	Overlay(frame model.Frame, boxes []model.BoundingBox, bees, mite bool) (model.Frame, error)
}

// Detector finds objects on a frame.
type Detector interface {
	Detect(frame model.Frame) (model.DetectionResult, error)
}

// Recorder journals processed frames.
type Recorder interface {
	Record(frame model.FrameRecord, crops []model.CropRecord)
}

// Publisher accepts live events.
type Publisher interface {
	Publish(event dto.LiveEvent)
}

// Deps are the collaborators of a Pipeline. Journal and Hub are optional.
type Deps struct {
	Config  *config.Config
	Runtime *state.Runtime
	Source  FrameSource
	Imager  Imager
	Bees    Detector
	Varroa  Detector
	Store   *storage.FileStore
	Journal Recorder
	Hub     Publisher
	LED     *led.Controller
	Logger  *logger.Logger
}

// Pipeline owns the capture loop. It is driven from a single goroutine.
type Pipeline struct {
	Deps
	crops *storage.CropLedger
	now   func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(deps Deps) *Pipeline {
	return &Pipeline{
		Deps:  deps,
		crops: storage.NewCropLedger(storage.MaxCrops),
		now:   time.Now,
	}
}

// Result summarises one processed frame.
type Result struct {
	Frame     uint32
	FramePath string
	Bees      int
	Mites     int
	Crops     []model.CropMeta
}

// Run processes one frame per InferPeriod until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Config.InferPeriod)
	defer ticker.Stop()

	p.Logger.Info("Capture loop started, period %s", p.Config.InferPeriod)
	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("Capture loop stopped")
			return
		case <-ticker.C:
			_, err := p.RunOnce(ctx)
			if err != nil && !errors.Is(err, ErrInferDisabled) && !errors.Is(err, context.Canceled) {
				p.Logger.Error("Capture round failed: %v", err)
			}
		}
	}
}

// ErrInferDisabled is returned by RunOnce while inference is switched off.
var ErrInferDisabled = errors.New("inference disabled")

// RunOnce acquires and processes a single frame.
func (p *Pipeline) RunOnce(ctx context.Context) (*Result, error) {
	if !p.Runtime.InferEnabled() {
		return nil, ErrInferDisabled
	}

	data, err := p.Source.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire frame: %w", err)
	}
	width, height, err := camera.JPEGDims(data)
	if err != nil {
		return nil, err
	}

	var bootID uint32
	if session := p.Runtime.Session(); session != nil {
		bootID = session.BootID
	}
	frameNo := p.Runtime.NextFrame()
	p.Runtime.ResetRound()
	p.crops.Reset()

	res := &Result{Frame: frameNo}
	res.FramePath, _ = p.Store.SaveJPEGFrame(data, bootID, frameNo)
	p.Logger.Session("FRAME %d size=%dx%d bytes=%d\n", frameNo, width, height, len(data))

	img, err := p.Imager.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", frameNo, err)
	}

	crop := geometry.Letterbox(img.Width, img.Height, p.Config.InputWidth, p.Config.InputHeight)
	input, err := p.Imager.Resize(img, geometry.Box{X: crop.X, Y: crop.Y, W: crop.W, H: crop.H}, p.Config.InputWidth, p.Config.InputHeight)
	if err != nil {
		return nil, fmt.Errorf("resize frame %d: %w", frameNo, err)
	}

	found, err := p.Bees.Detect(input)
	if err != nil {
		return nil, fmt.Errorf("bee detection on frame %d: %w", frameNo, err)
	}

	var (
		beeBoxes []model.BoundingBox
		records  []model.CropRecord
	)
	for i, b := range found.Boxes {
		if i >= storage.MaxCrops {
			p.Logger.Warning("Frame %d: %d bees, only %d crops kept", frameNo, found.Count(), storage.MaxCrops)
			break
		}
		src := crop.ToSource(geometry.Box{X: b.X, Y: b.Y, W: b.Width, H: b.Height})
		if src.W <= 0 || src.H <= 0 {
			continue
		}
		beeBoxes = append(beeBoxes, model.BoundingBox{
			Label: b.Label, Confidence: b.Confidence,
			X: src.X, Y: src.Y, Width: src.W, Height: src.H,
		})

		rec, mites := p.processBee(img, src, bootID, frameNo, i, b.Label)
		res.Mites += mites
		records = append(records, rec)
	}
	res.Bees = len(beeBoxes)
	for i := range records {
		records[i].CropPath, _ = p.crops.Lookup(records[i].BBoxIndex)
	}

	if len(beeBoxes) > 0 {
		p.saveBeeOverlay(img, beeBoxes, bootID, frameNo)
		p.Store.SaveBytes(centers(beeBoxes), storage.CentersPath(bootID, frameNo), "centers")
	}

	p.Runtime.AddRound(uint32(res.Bees), uint32(res.Mites))
	p.LED.Update(false)
	res.Crops = p.crops.Items()

	totals := p.Runtime.Totals()
	p.Logger.Session("DETECT frame=%d bees=%d mites=%d total_bees=%d total_mites=%d pct=%.2f\n",
		frameNo, res.Bees, res.Mites, totals.Bees, totals.Mites, totals.WeightedPercent())

	p.journal(bootID, res, records)
	p.publish(dto.LiveEvent{Type: dto.EventFrame, Boot: bootID, Frame: frameNo, Bees: res.Bees, Mites: res.Mites})
	snapshot := p.Runtime.Snapshot()
	p.publish(dto.LiveEvent{Type: dto.EventState, State: &snapshot})
	return res, nil
}

// processBee cuts the crop around one bee, stores it and files its varroa
// overlay under mite or no_mite.
func (p *Pipeline) processBee(img model.Frame, src geometry.Box, bootID, frameNo uint32, index int, label string) (model.CropRecord, int) {
	rec := model.CropRecord{BBoxIndex: uint32(index)}

	region := geometry.Square(src, p.Config.CropSize, img.Width, img.Height)
	cropImg, err := p.Imager.Crop(img, region)
	if err != nil {
		p.Logger.Error("Frame %d bee %d: crop failed: %v", frameNo, index, err)
		return rec, 0
	}

	cropPath := storage.CropPath(bootID, frameNo, index, geometry.SanitizeLabel(label))
	if p.Store.SaveEncodedImage(cropImg.Pix, cropImg.Width, cropImg.Height, p.Config.JPEGQuality, cropPath) {
		p.crops.Add(model.CropMeta{BBoxIndex: uint32(index), Path: cropPath})
	}

	mites, err := p.Varroa.Detect(cropImg)
	if err != nil {
		p.Logger.Error("Frame %d bee %d: varroa detection failed: %v", frameNo, index, err)
		return rec, 0
	}
	rec.Mites = mites.Count()
	hasMite := rec.Mites > 0

	overlay, err := p.Imager.Overlay(cropImg, mites.Boxes, false, hasMite)
	if err != nil {
		p.Logger.Error("Frame %d bee %d: overlay failed: %v", frameNo, index, err)
		return rec, rec.Mites
	}
	overlayPath := storage.VarroaOverlayPath(bootID, frameNo, index, hasMite)
	if p.Store.SaveEncodedImage(overlay.Pix, overlay.Width, overlay.Height, p.Config.JPEGQuality, overlayPath) {
		rec.OverlayPath = overlayPath
	}
	return rec, rec.Mites
}

func (p *Pipeline) saveBeeOverlay(img model.Frame, boxes []model.BoundingBox, bootID, frameNo uint32) {
	overlay, err := p.Imager.Overlay(img, boxes, true, false)
	if err != nil {
		p.Logger.Error("Frame %d: bee overlay failed: %v", frameNo, err)
		return
	}
	p.Store.SaveEncodedImage(overlay.Pix, overlay.Width, overlay.Height, p.Config.JPEGQuality, storage.BeeOverlayPath(bootID, frameNo))
}

func (p *Pipeline) journal(bootID uint32, res *Result, crops []model.CropRecord) {
	if p.Journal == nil {
		return
	}
	p.Journal.Record(model.FrameRecord{
		BootID:    bootID,
		Frame:     res.Frame,
		FramePath: res.FramePath,
		Bees:      res.Bees,
		Mites:     res.Mites,
		Timestamp: p.now(),
	}, crops)
}

func (p *Pipeline) publish(event dto.LiveEvent) {
	if p.Hub != nil {
		p.Hub.Publish(event)
	}
}

// centers renders one "x y" line per box center.
func centers(boxes []model.BoundingBox) []byte {
	var sb strings.Builder
	for _, b := range boxes {
		x, y := b.Center()
		fmt.Fprintf(&sb, "%d %d\n", x, y)
	}
	return []byte(sb.String())
}
