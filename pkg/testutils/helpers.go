package testutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dropd/pkg/types"
)

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		require.NoError(t, err)
	}
}

// CreateTestDirs creates empty subdirectories under dir
func CreateTestDirs(t *testing.T, dir string, names ...string) {
	for _, name := range names {
		err := os.Mkdir(filepath.Join(dir, name), 0755)
		require.NoError(t, err)
	}
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}

// ScriptedProvider is a PayloadProvider test double. Each load strategy
// succeeds only for identifiers the test scripted; everything else fails,
// and every call is recorded so tests can assert the attempt order.
type ScriptedProvider struct {
	Identifiers []string
	Name        string

	// Per-identifier results. A missing key means the strategy fails
	// for that identifier.
	InPlacePaths map[string]string
	TempPaths    map[string]string
	Items        map[string]types.RuntimeValue

	// Calls records every strategy invocation as "strategy:identifier",
	// in order.
	Calls []string
}

func (p *ScriptedProvider) RegisteredTypeIdentifiers() []string {
	return p.Identifiers
}

func (p *ScriptedProvider) SuggestedName() string {
	return p.Name
}

func (p *ScriptedProvider) LoadInPlace(ctx context.Context, identifier string) (string, error) {
	p.Calls = append(p.Calls, "inplace:"+identifier)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path, ok := p.InPlacePaths[identifier]; ok {
		return path, nil
	}
	return "", fmt.Errorf("no in-place file for %q", identifier)
}

func (p *ScriptedProvider) LoadTemporary(ctx context.Context, identifier string) (string, error) {
	p.Calls = append(p.Calls, "temp:"+identifier)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path, ok := p.TempPaths[identifier]; ok {
		return path, nil
	}
	return "", fmt.Errorf("no temporary file for %q", identifier)
}

func (p *ScriptedProvider) LoadItem(ctx context.Context, identifier string) (types.RuntimeValue, error) {
	p.Calls = append(p.Calls, "item:"+identifier)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if value, ok := p.Items[identifier]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("no item value for %q", identifier)
}
