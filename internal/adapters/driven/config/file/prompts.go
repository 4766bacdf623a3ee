package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads agent system prompts from user-editable files.
// Each role reads <dir>/<role>.txt and falls back to the embedded default
// when the file is missing or empty.
//
// The directory is seeded lazily on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptResearcher: `You are a music historian helping verify whether a track was made by people or generated by a model.
Give brief, factual context about the artist and release named in the request:
1. Genre and era.
2. Known production habits (lo-fi, heavy pitch correction, live takes, sequenced).
3. How polished this artist's records are usually expected to sound.

If you do not know the artist, say so plainly and describe only what the genre implies. Never invent releases or biography. Keep it under 200 words.`,

	driven.PromptCritic: `You are a senior audio forensic analyst.
You receive artist context and a digest of technical detection evidence. Look for discrepancies between the expected production style and the findings.

A 16 kHz cutoff on a 1995 lo-fi hip hop record is expected. Perfectly quantised pitch on a raw punk recording is suspicious.

Write a short "Critical Verification" section. State which findings the context explains away and which remain unexplained. Do not change the numeric score.`,

	driven.PromptReporter: `You write for a general audience about the authenticity of a music track.
Use Markdown with these sections:
1. **Executive Summary**: the verdict label and score in one or two sentences.
2. **Artist Context**: a brief background, or a note that none was available.
3. **Evidence**: the main findings in plain language (explain terms like "spectral cutoff").
4. **Conclusion**: what the listener should take away, including uncertainty.

Report the score and label exactly as given. Do not add findings that are not in the input.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.musictruth/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the system prompt for the given role name.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// read resolves a prompt from disk, then from the embedded defaults.
func (s *PromptStore) read(name string) (string, error) {
	if s.initErr == nil {
		data, err := os.ReadFile(s.path(name))
		if err == nil {
			if text := strings.TrimSpace(string(data)); text != "" {
				return text, nil
			}
		}
	}
	if prompt, ok := defaultPrompts[name]; ok {
		return prompt, nil
	}
	if s.initErr != nil {
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}
	return "", fmt.Errorf("load prompt %q: not found", name)
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Names returns the roles that have a default prompt.
func (s *PromptStore) Names() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// initialise creates the prompt directory and writes any missing defaults.
// Existing files are never overwritten.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	readme := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		if err := os.WriteFile(readme, []byte(promptReadme), 0600); err != nil {
			s.initErr = err
		}
	}
}

const promptReadme = `# musictruth prompts

System prompts for the narrative agents.

- ` + "`researcher.txt`" + ` gathers artist and release context
- ` + "`critic.txt`" + ` weighs the detection evidence against that context
- ` + "`reporter.txt`" + ` writes the final report

Edit a file to change an agent's behaviour. An empty or deleted file falls
back to the built-in prompt. Prompts are plain text with no placeholders;
the evidence digest is always sent as the user message.
`
