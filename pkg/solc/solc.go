package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/pkg/errors"
)

// Compiler is the external-compiler collaborator boundary the engine
// depends on. Production code satisfies it with *Binary; tests satisfy
// it with a fake that never shells out to a real solc.
type Compiler interface {
	Compile(ctx context.Context, input Input) (Output, error)
}

// Binary invokes a solc executable in Standard-JSON mode. It is a
// stateless tool: each call writes a self-contained input object to
// the process's stdin and reads one output object from stdout.
type Binary struct {
	// Path to the solc executable, e.g. resolved via exec.LookPath or a
	// version-manager's install directory.
	Path string
}

// Find locates a solc executable on PATH.
func Find() (*Binary, error) {
	path, err := exec.LookPath("solc")
	if err != nil {
		return nil, errors.Wrap(err, "solc executable not found on PATH")
	}
	return &Binary{Path: path}, nil
}

// Compile runs solc --standard-json with the given input and decodes
// its JSON output. A non-zero process exit alone is not a failure
// signal here; solc reports compile errors inside the JSON body, and
// callers (parser/validator) interpret Output.Errors themselves.
func (b *Binary) Compile(ctx context.Context, input Input) (Output, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return Output{}, errors.Wrap(err, "failed to encode solc input")
	}

	cmd := exec.CommandContext(ctx, b.Path, "--standard-json")
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stdout.Len() == 0 {
			return Output{}, errors.Wrapf(err, "solc invocation failed: %s", stderr.String())
		}
		// solc can exit non-zero while still emitting a well-formed
		// Standard-JSON body describing the compile errors; fall through
		// to decoding so callers see the real diagnostics.
	}

	var output Output
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return Output{}, errors.Wrap(err, "failed to decode solc output")
	}
	return output, nil
}
