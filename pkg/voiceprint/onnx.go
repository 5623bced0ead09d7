package voiceprint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/haivivi/aligner/pkg/audio/fbank"
)

// LibraryPathEnv names the environment variable holding the ONNX Runtime
// shared library path.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	ortOnce sync.Once
	ortErr  error
)

func initRuntime() error {
	ortOnce.Do(func() {
		if p := os.Getenv(LibraryPathEnv); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXConfig configures an ONNXModel.
type ONNXConfig struct {
	// Path is the .onnx model file. The network takes fbank features shaped
	// [1, frames, mels] and returns one embedding.
	Path string

	// Device is "cpu" (default) or "cuda".
	Device string

	// Threads limits intra-op parallelism; 0 leaves the runtime default.
	Threads int

	// Fbank overrides the feature front end. Zero means fbank.DefaultConfig.
	Fbank fbank.Config
}

// ONNXModel runs a speaker embedding network with ONNX Runtime. Features are
// log mel filterbanks with per-utterance mean and variance normalization.
// Embed calls are serialized.
type ONNXModel struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	fb      *fbank.Extractor
	dim     int
	mels    int
}

// NewONNXModel loads the network at cfg.Path.
func NewONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("voiceprint: model file: %w", err)
	}
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("voiceprint: init onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("voiceprint: model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("voiceprint: model has no inputs or outputs")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("voiceprint: session options: %w", err)
	}
	defer options.Destroy()
	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			return nil, fmt.Errorf("voiceprint: set threads: %w", err)
		}
	}
	if cfg.Device == "cuda" {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("voiceprint: cuda options: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := options.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("voiceprint: enable cuda: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.Path,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, options)
	if err != nil {
		return nil, fmt.Errorf("voiceprint: create session: %w", err)
	}

	fbCfg := cfg.Fbank
	if fbCfg.SampleRate == 0 {
		fbCfg = fbank.DefaultConfig()
	}
	dim := 192
	if dims := outputs[0].Dimensions; len(dims) > 0 && dims[len(dims)-1] > 0 {
		dim = int(dims[len(dims)-1])
	}
	return &ONNXModel{
		session: session,
		fb:      fbank.New(fbCfg),
		dim:     dim,
		mels:    fbCfg.NumMels,
	}, nil
}

// Embed implements [Model].
func (m *ONNXModel) Embed(ctx context.Context, wave []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, errors.New("voiceprint: model is closed")
	}

	feats := m.fb.Extract(wave)
	if len(feats) == 0 {
		return nil, ErrTooShort
	}
	fbank.CMVN(feats)

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(feats)), int64(m.mels)), fbank.Flatten(feats))
	if err != nil {
		return nil, fmt.Errorf("voiceprint: input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("voiceprint: inference: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("voiceprint: output is not a float32 tensor")
	}
	emb := make([]float32, m.dim)
	copy(emb, out.GetData())
	L2Normalize(emb)
	return emb, nil
}

// Dimension implements [Model].
func (m *ONNXModel) Dimension() int {
	return m.dim
}

// Close implements [Model].
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
