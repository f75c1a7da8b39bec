package builtin

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// CsvRecorderKind is an extendable-inputs sink that appends one row per
// tick to a flat CSV file while recording is enabled. Grounded on the
// reference csv_recorder plugin; no database, just a file on disk.
const CsvRecorderKind = "csv_recorder"

type CsvRecorder struct {
	id uint64

	separator   string
	columns     []string
	path        string
	recording   bool
	includeTime bool
	timeScale   float64
	timeLabel   string
	timeStep    float64
	timeSeconds float64

	inputValues  []float64
	file         *os.File
	headerWritten bool
}

func NewCsvRecorder(id uint64) *CsvRecorder {
	return &CsvRecorder{id: id, separator: ",", includeTime: true, timeScale: 1000, timeLabel: "time_ms", timeStep: 0.001}
}

func (p *CsvRecorder) ID() uint64   { return p.id }
func (p *CsvRecorder) Kind() string { return CsvRecorderKind }
func (p *CsvRecorder) Meta() pluginabi.Meta {
	return pluginabi.Meta{
		DisplayName: "CSV Recorder",
		DefaultVariables: map[string]float64{
			"input_count": float64(len(p.inputValues)),
		},
	}
}

func (p *CsvRecorder) Inputs() []pluginabi.Port {
	ports := make([]pluginabi.Port, len(p.inputValues))
	for i := range ports {
		ports[i] = extendablePort(i)
	}
	return ports
}

func (p *CsvRecorder) Outputs() []pluginabi.Port { return nil }

func (p *CsvRecorder) SetConfig(config map[string]any) error {
	wasRecording := p.recording

	if v, ok := config["separator"].(string); ok && v != "" {
		p.separator = v
	}
	if raw, ok := config["columns"].([]any); ok {
		cols := make([]string, 0, len(raw))
		for _, c := range raw {
			if s, ok := c.(string); ok {
				cols = append(cols, s)
			}
		}
		p.columns = cols
	}
	if v, ok := config["path"].(string); ok {
		p.path = v
	}
	if v, ok := config["recording"].(bool); ok {
		p.recording = v
	}
	if v, ok := config["include_time"].(bool); ok {
		p.includeTime = v
	}
	if v, ok := config["input_count"]; ok {
		if f, ok := toFloat(v); ok {
			n := int(f)
			if n < 0 {
				n = 0
			}
			values := make([]float64, n)
			copy(values, p.inputValues)
			p.inputValues = values
		}
	}

	if !wasRecording && p.recording {
		p.timeSeconds = 0
	}
	if p.recording && p.file == nil && p.path != "" {
		if err := p.openFile(); err != nil {
			return fmt.Errorf("csv_recorder: %w", err)
		}
	}
	if !p.recording && p.file != nil {
		_ = p.file.Close()
		p.file = nil
		p.headerWritten = false
	}
	return nil
}

func (p *CsvRecorder) openFile() error {
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	p.file = f
	info, err := f.Stat()
	p.headerWritten = err == nil && info.Size() > 0
	return nil
}

func (p *CsvRecorder) SetInput(port pluginabi.Port, value float64) {
	idx, ok := portIndex(port)
	if !ok || idx < 0 || idx >= len(p.inputValues) {
		return
	}
	p.inputValues[idx] = value
}

func (p *CsvRecorder) Process(ctx pluginabi.ProcessContext) error {
	if !p.recording || p.file == nil {
		return nil
	}
	if !p.headerWritten {
		p.writeHeader()
	}
	p.timeSeconds += p.timeStep

	fields := make([]string, 0, len(p.inputValues)+1)
	if p.includeTime {
		fields = append(fields, strconv.FormatFloat(p.timeSeconds*p.timeScale, 'f', -1, 64))
	}
	for _, v := range p.inputValues {
		fields = append(fields, strconv.FormatFloat(pluginabi.Sanitize(v), 'f', -1, 64))
	}
	_, err := fmt.Fprintln(p.file, strings.Join(fields, p.separator))
	return err
}

func (p *CsvRecorder) writeHeader() {
	headers := make([]string, 0, len(p.inputValues)+1)
	if p.includeTime {
		headers = append(headers, p.timeLabel)
	}
	for i := range p.inputValues {
		if i < len(p.columns) && p.columns[i] != "" {
			headers = append(headers, p.columns[i])
		} else {
			headers = append(headers, string(extendablePort(i)))
		}
	}
	fmt.Fprintln(p.file, strings.Join(headers, p.separator))
	p.headerWritten = true
}

func (p *CsvRecorder) GetOutput(pluginabi.Port) float64 { return 0 }

func (p *CsvRecorder) Behavior() *pluginabi.Behavior {
	return &pluginabi.Behavior{ExtendableInputs: true, AutoExtendInputs: true, SupportsStartStop: true}
}

func (p *CsvRecorder) UISchema() json.RawMessage { return nil }

func (p *CsvRecorder) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
