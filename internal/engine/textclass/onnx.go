package textclass

import (
	"fmt"
	"sync"

	"github.com/klauspost/cpuid/v2"
	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the runtime once. An empty libPath keeps the
// onnxruntime_go default library name.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// defaultThreads sizes the intra-op pool to the physical cores.
func defaultThreads() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return 4
}

// onnxSession wraps a DynamicAdvancedSession for a BERT-style
// sequence-classification graph with a [batch, numLabels] logits output.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	numLabels  int64 // 0 when the graph leaves the label axis dynamic
	typeIDs    bool  // graph consumes token_type_ids
}

func newONNXSession(modelPath, libPath string, threads int) (*onnxSession, error) {
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}

	inputNames, typeIDs, err := classifierInputs(inputs)
	if err != nil {
		return nil, err
	}
	out, err := logitsOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	if threads <= 0 {
		threads = defaultThreads()
	}
	if err := opts.SetIntraOpNumThreads(threads); err != nil {
		return nil, fmt.Errorf("onnx: set intra-op threads: %w", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("onnx: set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	s := &onnxSession{
		session:    session,
		inputNames: inputNames,
		outputName: out.Name,
		typeIDs:    typeIDs,
	}
	if n := out.Dimensions[1]; n > 0 {
		s.numLabels = n
	}
	return s, nil
}

// classifierInputs requires input_ids and attention_mask. token_type_ids
// is optional since DistilBERT-style exports drop it.
func classifierInputs(inputs []ort.InputOutputInfo) (names []string, typeIDs bool, err error) {
	have := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		have[in.Name] = true
	}
	for _, name := range []string{"input_ids", "attention_mask"} {
		if !have[name] {
			return nil, false, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	names = []string{"input_ids", "attention_mask"}
	if have["token_type_ids"] {
		names = append(names, "token_type_ids")
		typeIDs = true
	}
	return names, typeIDs, nil
}

// logitsOutput prefers an output named "logits" and falls back to the first
// output. Either way it must be 2D.
func logitsOutput(outputs []ort.InputOutputInfo) (ort.InputOutputInfo, error) {
	if len(outputs) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("onnx: model has no outputs")
	}
	out := outputs[0]
	for _, o := range outputs {
		if o.Name == "logits" {
			out = o
			break
		}
	}
	if len(out.Dimensions) != 2 {
		return ort.InputOutputInfo{}, fmt.Errorf("onnx: expected 2D logits output, got %v", out.Dimensions)
	}
	return out, nil
}

// infer runs one batch and returns flat [batchSize * numLabels] logits.
func (s *onnxSession) infer(b batch, numLabels int64) ([]float32, error) {
	shape := ort.NewShape(b.batchSize, b.seqLen)

	tIDs, err := ort.NewTensor(shape, b.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, b.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	inputs := []ort.Value{tIDs, tMask}
	if s.typeIDs {
		tTypes, err := ort.NewTensor(shape, b.tokenTypeIDs)
		if err != nil {
			return nil, fmt.Errorf("onnx: failed to create token_type_ids tensor: %w", err)
		}
		defer tTypes.Destroy()
		inputs = append(inputs, tTypes)
	}

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(b.batchSize, numLabels))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run(inputs, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy out before the tensor is destroyed.
	src := tOut.GetData()
	logits := make([]float32, len(src))
	copy(logits, src)
	return logits, nil
}

func (s *onnxSession) close() error {
	return s.session.Destroy()
}
