package agent

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/coredrift/agentcore/internal/ui"
)

// CLIOutput adapts ui.OutputHandler's colored console writer to the
// Output interface the Runner streams to.
type CLIOutput struct {
	*ui.OutputHandler
}

// NewCLIOutput creates a console Output backed by the terminal's color
// capability detection.
func NewCLIOutput() *CLIOutput {
	return &CLIOutput{OutputHandler: ui.NewOutputHandler()}
}

// StreamDoneWithUsage prints the round's token usage, dimmed, after the
// stream finishes.
func (o *CLIOutput) StreamDoneWithUsage(inputTokens, outputTokens int64) {
	o.OutputHandler.StreamDone()
	fmt.Fprintf(os.Stderr, "%s\n", o.dim(fmt.Sprintf("  (%d in / %d out tokens)", inputTokens, outputTokens)))
}

func (o *CLIOutput) dim(text string) string {
	if !o.UseColors() {
		return text
	}
	return ui.Dim + text + ui.Reset
}

// CLIInput reads follow-up lines from stdin.
type CLIInput struct {
	reader *bufio.Reader
}

// NewCLIInput creates an Input backed by os.Stdin.
func NewCLIInput() *CLIInput {
	return &CLIInput{reader: bufio.NewReader(os.Stdin)}
}

// ReadLine prints prompt and reads one line from stdin, trimming the
// trailing newline.
func (in *CLIInput) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Print(prompt)
	}
	line, err := in.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
