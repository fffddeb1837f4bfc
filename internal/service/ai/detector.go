package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"beecam/internal/logger"
	"beecam/internal/model"
)

// Labels used for the two detectors.
const (
	LabelBee    = "bee"
	LabelVarroa = "varroa"
)

// Options configures one DNN detector.
type Options struct {
	Name       string
	ModelPath  string
	ConfigPath string
	Threshold  float64
	InputW     int
	InputH     int
	Labels     map[int]string
}

// BeeOptions returns the options for the full-frame bee detector.
func BeeOptions(modelPath, configPath string, threshold float64, w, h int) Options {
	return Options{
		Name:       "bee",
		ModelPath:  modelPath,
		ConfigPath: configPath,
		Threshold:  threshold,
		InputW:     w,
		InputH:     h,
		Labels:     map[int]string{1: LabelBee},
	}
}

// VarroaOptions returns the options for the per-crop varroa detector.
func VarroaOptions(modelPath, configPath string, threshold float64, size int) Options {
	return Options{
		Name:       "varroa",
		ModelPath:  modelPath,
		ConfigPath: configPath,
		Threshold:  threshold,
		InputW:     size,
		InputH:     size,
		Labels:     map[int]string{1: LabelVarroa},
	}
}

// DetectorService runs an SSD style network on RGB frames.
type DetectorService struct {
	opts   Options
	net    gocv.Net
	ready  bool
	mu     sync.Mutex
	logger *logger.Logger
}

// NewDetectorService creates a detector and tries to load its network. A
// detector without a network reports an error from every Detect call.
func NewDetectorService(opts Options, logger *logger.Logger) *DetectorService {
	service := &DetectorService{opts: opts, logger: logger}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize %s network: %v", opts.Name, err)
		return service
	}
	return service
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.opts.ModelPath); err != nil {
		return fmt.Errorf("model file not found: %s", s.opts.ModelPath)
	}
	if s.opts.ConfigPath != "" {
		if _, err := os.Stat(s.opts.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", s.opts.ConfigPath)
		}
	}

	net := gocv.ReadNet(s.opts.ModelPath, s.opts.ConfigPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.ready = true
	s.logger.Info("Detection network %s initialized successfully", s.opts.Name)
	return nil
}

// Ready reports whether the network loaded.
func (s *DetectorService) Ready() bool {
	return s.ready
}

// Detect runs the network on frame and returns boxes in frame pixels.
func (s *DetectorService) Detect(frame model.Frame) (model.DetectionResult, error) {
	if !s.ready {
		return model.DetectionResult{}, fmt.Errorf("%s network not initialized", s.opts.Name)
	}
	if !frame.Valid() {
		return model.DetectionResult{}, fmt.Errorf("invalid frame %dx%d", frame.Width, frame.Height)
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix[:frame.Width*frame.Height*3])
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("failed to wrap frame: %v", err)
	}
	defer mat.Close()

	// Frames are already RGB, so no channel swap.
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(s.opts.InputW, s.opts.InputH), gocv.NewScalar(127.5, 127.5, 127.5, 0), false, false)
	defer blob.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	// Rows are [batch_id, class_id, confidence, x1, y1, x2, y2] with relative coordinates.
	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	var result model.DetectionResult
	for i := 0; i < rows.Rows(); i++ {
		confidence := float64(rows.GetFloatAt(i, 2))
		if confidence <= s.opts.Threshold {
			continue
		}
		x1 := clampUnit(rows.GetFloatAt(i, 3))
		y1 := clampUnit(rows.GetFloatAt(i, 4))
		x2 := clampUnit(rows.GetFloatAt(i, 5))
		y2 := clampUnit(rows.GetFloatAt(i, 6))
		box := model.BoundingBox{
			Label:      s.label(int(rows.GetFloatAt(i, 1))),
			Confidence: confidence,
			X:          int(x1 * float32(frame.Width)),
			Y:          int(y1 * float32(frame.Height)),
		}
		box.Width = int(x2*float32(frame.Width)) - box.X
		box.Height = int(y2*float32(frame.Height)) - box.Y
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		result.Boxes = append(result.Boxes, box)
	}
	return result, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil
	}
	s.ready = false
	return s.net.Close()
}

func (s *DetectorService) label(classID int) string {
	if label, ok := s.opts.Labels[classID]; ok {
		return label
	}
	return fmt.Sprintf("class%d", classID)
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
