package ai

import (
	"bufio"
	"image"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"trafficcounter/internal/config"
	"trafficcounter/internal/detect"
	"trafficcounter/internal/logger"
	"trafficcounter/internal/model"
)

// ErrModelUnavailable is returned when the network cannot be loaded.
var ErrModelUnavailable = errors.New("detection model unavailable")

// DetectorService runs a DNN object detector on frames.
type DetectorService struct {
	net        gocv.Net
	format     detect.Format
	modelPath  string
	configPath string
	threshold  float32
	nms        float64
	labels     []string
	logger     *logger.Logger
}

// NewDetectorService loads the network named in the config.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) (*DetectorService, error) {
	format, err := detect.ParseFormat(cfg.ModelFormat)
	if err != nil {
		return nil, err
	}

	labels := detect.COCO80Labels
	if cfg.ClassNamesPath != "" {
		if labels, err = readLabels(cfg.ClassNamesPath); err != nil {
			return nil, err
		}
	}

	service := &DetectorService{
		format:     format,
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		threshold:  float32(cfg.DetectionThreshold),
		nms:        cfg.NMSThreshold,
		labels:     labels,
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		return nil, errors.Wrap(ErrModelUnavailable, err.Error())
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return errors.Errorf("model file not found: %s", s.modelPath)
	}

	if s.configPath != "" {
		if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
			return errors.Errorf("config file not found: %s", s.configPath)
		}
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return errors.New("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return errors.New("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized: %s (%s)", s.modelPath, s.format)
	return nil
}

// readLabels reads one class name per line.
func readLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open class names")
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read class names")
	}
	return labels, nil
}

// Taxonomy is the label space of the class ids this detector returns.
func (s *DetectorService) Taxonomy() string {
	return detect.TaxonomyCOCO80
}

// Labels are the class names indexed by class id.
func (s *DetectorService) Labels() []string {
	return s.labels
}

// Detect runs the network on frame and returns the detections above the
// confidence threshold after NMS. The frame is read, never written.
func (s *DetectorService) Detect(frame *gocv.Mat) ([]model.DetectedObject, error) {
	if frame == nil || frame.Empty() {
		return nil, detect.Failure(errors.New("empty frame"))
	}

	input := s.format.InputSize()
	var blob gocv.Mat
	if s.format == detect.FormatSSD {
		// SSD MobileNet COCO expects mean 127.5 and scale 1/127.5
		blob = gocv.BlobFromImage(*frame, 1.0/127.5, input, gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	} else {
		blob = gocv.BlobFromImage(*frame, 1.0/255.0, input, gocv.NewScalar(0, 0, 0, 0), true, false)
	}
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, detect.Failure(errors.New("network returned no output"))
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, detect.Failure(errors.Wrap(err, "failed to read network output"))
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	var results []model.DetectedObject
	if s.format == detect.FormatSSD {
		results, err = detect.DecodeSSD(data, size, s.threshold, s.labels)
	} else {
		results, err = detect.DecodeYOLOv8(data, output.Size(), size, input, s.threshold, s.labels)
	}
	if err != nil {
		return nil, detect.Failure(err)
	}

	return detect.NMS(results, s.nms), nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	return s.net.Close()
}
