// Package opencv implements gaze.Source on a webcam with OpenCV.
//
// Faces are found with the YuNet detector, whose landmarks locate both eyes.
// Each eye box is checked with a Haar cascade trained on open eyes: no open
// eye in either box means the user is blinking. For open eyes the darkest
// point of the blurred box approximates the pupil, and its horizontal
// position gives the gaze ratio.
package opencv

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/camera"
	"github.com/teslashibe/focuson/pkg/debug"
	"github.com/teslashibe/focuson/pkg/gaze"
)

// Config holds tracker configuration.
type Config struct {
	Camera camera.Config

	FaceModel      string  // Path to the YuNet ONNX model
	FaceConfidence float64 // Minimum face score (0-1)
	EyeCascade     string  // Path to an open-eye Haar cascade

	Thresholds gaze.Thresholds
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Camera:         camera.DefaultConfig(),
		FaceModel:      "models/face_detection_yunet.onnx",
		FaceConfidence: 0.6,
		EyeCascade:     "models/haarcascade_eye_tree_eyeglasses.xml",
		Thresholds:     gaze.DefaultThresholds(),
	}
}

// Tracker reads webcam frames and produces gaze observations.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex // Protects capture and inference
	capture *gocv.VideoCapture
	face    gocv.FaceDetectorYN
	eyes    gocv.CascadeClassifier
	frame   gocv.Mat
	closed  bool
}

// Open starts the webcam and loads both models.
func Open(cfg Config) (*Tracker, error) {
	if errs := cfg.Camera.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("gaze: camera config: %v", errs)
	}
	for _, path := range []string{cfg.FaceModel, cfg.EyeCascade} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("gaze: model file not found: %s", path)
		}
	}

	eyes := gocv.NewCascadeClassifier()
	if !eyes.Load(cfg.EyeCascade) {
		eyes.Close()
		return nil, fmt.Errorf("gaze: load eye cascade %s", cfg.EyeCascade)
	}

	capture, err := gocv.OpenVideoCapture(cfg.Camera.Device)
	if err != nil {
		eyes.Close()
		return nil, fmt.Errorf("gaze: open camera %d: %w", cfg.Camera.Device, err)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Camera.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Camera.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Camera.Framerate))

	face := gocv.NewFaceDetectorYNWithParams(
		cfg.FaceModel,
		"",
		image.Pt(cfg.Camera.Width, cfg.Camera.Height),
		float32(cfg.FaceConfidence),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	t := &Tracker{
		cfg:     cfg,
		logger:  log.Component("gaze.opencv"),
		capture: capture,
		face:    face,
		eyes:    eyes,
		frame:   gocv.NewMat(),
	}
	t.logger.Info("camera opened",
		"device", cfg.Camera.Device,
		"width", cfg.Camera.Width,
		"height", cfg.Camera.Height,
	)
	return t, nil
}

// Next reads one frame and analyzes it.
func (t *Tracker) Next(ctx context.Context) (gaze.Observation, error) {
	if err := ctx.Err(); err != nil {
		return gaze.Observation{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return gaze.Observation{}, gaze.ErrClosed
	}
	if ok := t.capture.Read(&t.frame); !ok || t.frame.Empty() {
		return gaze.Observation{}, fmt.Errorf("gaze: camera %d returned no frame", t.cfg.Camera.Device)
	}

	return t.analyze(t.frame), nil
}

// analyze runs face and eye detection on a BGR frame.
func (t *Tracker) analyze(img gocv.Mat) gaze.Observation {
	t.face.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	t.face.Detect(img, &faces)

	best, ok := bestFace(faces)
	if !ok {
		debug.TickLog("👁️  no face\n")
		return gaze.Observation{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	var ratios []float64
	for _, center := range best.eyes {
		box := eyeBox(center, best.box.Dx(), bounds)
		if box.Empty() {
			continue
		}
		if r, open := t.eyeRatio(gray, box); open {
			ratios = append(ratios, r)
		}
	}

	if len(ratios) == 0 {
		debug.TickLog("👁️  blink\n")
		return gaze.Observation{FaceFound: true, Blinking: true}
	}

	ratio := mean(ratios)
	dir := t.cfg.Thresholds.Classify(ratio)
	debug.TickLog("👁️  ratio=%.2f %s\n", ratio, dir)
	return gaze.Observation{FaceFound: true, Direction: dir, Ratio: ratio}
}

// eyeRatio checks whether box holds an open eye and, if so, returns the
// horizontal position of its darkest point.
func (t *Tracker) eyeRatio(gray gocv.Mat, box image.Rectangle) (float64, bool) {
	roi := gray.Region(box)
	defer roi.Close()

	if len(t.eyes.DetectMultiScale(roi)) == 0 {
		return 0, false
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(roi, &blurred, image.Pt(7, 7), 0, 0, gocv.BorderDefault)

	_, _, minLoc, _ := gocv.MinMaxLoc(blurred)
	return pupilRatio(minLoc.X, box.Dx()), true
}

// Close releases the camera and models.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.frame.Close()
	t.face.Close()
	t.eyes.Close()
	return t.capture.Close()
}

// detectedFace is one YuNet result in pixels.
type detectedFace struct {
	box   image.Rectangle
	eyes  [2]image.Point
	score float32
}

// bestFace picks the highest-scoring row of a YuNet result.
//
// YuNet output format (15 columns):
// 0-3: x, y, w, h (bounding box in pixels)
// 4-7: right eye x,y then left eye x,y
// 8-13: nose tip and mouth corners
// 14: face score
func bestFace(faces gocv.Mat) (detectedFace, bool) {
	var best detectedFace
	found := false
	for r := 0; r < faces.Rows(); r++ {
		score := faces.GetFloatAt(r, 14)
		if found && score <= best.score {
			continue
		}
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		best = detectedFace{
			box: image.Rect(x, y, x+w, y+h),
			eyes: [2]image.Point{
				image.Pt(int(faces.GetFloatAt(r, 4)), int(faces.GetFloatAt(r, 5))),
				image.Pt(int(faces.GetFloatAt(r, 6)), int(faces.GetFloatAt(r, 7))),
			},
			score: score,
		}
		found = true
	}
	return best, found
}

var _ gaze.Source = (*Tracker)(nil)
