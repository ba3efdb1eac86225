package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration overrides from a shardctl.kdl
// file under projectRoot. A missing file returns a zero Config, a zero
// FieldSet, and no error: callers fall back to Default() entirely.
//
// Expected shape:
//
//	timing {
//	    alpha 0.3
//	    prune-days 30
//	}
//	scheduler {
//	    timeout-ms 500
//	    file-affinity true
//	    file-affinity-penalty-ms 30000
//	}
//	timing-file ".shardctl-timing.json"
func LoadKDL(projectRoot string) (Config, FieldSet, error) {
	path := filepath.Join(projectRoot, "shardctl.kdl")
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, FieldSet{}, nil
		}
		return Config{}, FieldSet{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return Config{}, FieldSet{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var cfg Config
	var set FieldSet

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "timing":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "alpha":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Alpha = v
						set.Alpha = true
					}
				case "prune-days":
					if v, ok := firstIntArg(cn); ok {
						cfg.PruneDays = v
						set.PruneDays = true
					}
				}
			}
		case "scheduler":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "timeout-ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.TimeoutMs = v
						set.TimeoutMs = true
					}
				case "file-affinity":
					if b, ok := firstBoolArg(cn); ok {
						cfg.FileAffinityEnabled = b
						set.FileAffinityEnabled = true
					}
				case "file-affinity-penalty-ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.FileAffinityPenaltyMs = int64(v)
						set.FileAffinityPenaltyMs = true
					}
				}
			}
		case "timing-file":
			if s, ok := firstStringArg(n); ok {
				cfg.TimingFile = s
				set.TimingFile = true
			}
		}
	}

	return cfg, set, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
