package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to
// embedded defaults.
//
// The store uses lazy initialisation - files are only created when first
// accessed, not in the constructor. This makes testing easier and avoids
// unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
	watcher   *fsnotify.Watcher
}

// defaultPrompts contains embedded default prompts. Answer templates
// take two placeholders: retrieved context, then the user question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptStatus: basePrompt + `When asked about trial status, structure the answer with:
- Current status
- Start and completion dates
- Last update date
- Termination reason, if the trial was stopped
- Enrollment, if reported
Write "not specified in context" for any item the context does not state.

Context:
%s

Question: %s

Answer:`,

	driven.PromptEligibility: basePrompt + `When asked about eligibility, structure the answer as:
- Inclusion criteria
- Exclusion criteria
- Age requirements
- Gender requirements
- Healthy volunteer status
Write "not specified in context" for any item the context does not state.

Context:
%s

Question: %s

Answer:`,

	driven.PromptIntervention: basePrompt + `When asked about interventions, include for each intervention:
- Type
- Name
- Description
- Dosage and administration, if reported
Write "not specified in context" for any item the context does not state.

Context:
%s

Question: %s

Answer:`,

	driven.PromptOutcome: basePrompt + `When asked about outcomes, present primary and secondary outcomes as a table of:
- Measure
- Time frame
- Study population, if reported
Write "not specified in context" for any cell the context does not state.

Context:
%s

Question: %s

Answer:`,

	driven.PromptDiscovery: basePrompt + `The user is looking for relevant trials. Start with a one-sentence overview of what was found, then list up to 5 distinct trials, each as a bullet with:
- Trial title
- NCT ID
- Brief description (1-2 sentences)
- Current status
- Key eligibility criteria, if available
Do not list the same trial twice. If no trial in the context is relevant, say so plainly.

Context:
%s

Question: %s

Answer:`,

	driven.PromptSummary: basePrompt + `Produce a concise summary of the trials in the context, focusing on the aspects relevant to the question. Write "not specified in context" rather than guessing at missing details.

Context:
%s

Question: %s

Answer:`,

	driven.PromptDetailedSummary: basePrompt + `Produce an exhaustive summary of the trials in the context, covering identification, status, design, interventions, outcomes and eligibility. Include specific numbers and dates where the context states them, and write "not specified in context" where it does not.

Context:
%s

Question: %s

Answer:`,

	driven.PromptGeneral: basePrompt + `Answer the question using only the context above.

Context:
%s

Question: %s

Answer:`,

	driven.PromptVerify: `You are verifying a clinical trials answer against its source context. Judge strictly from the context below whether the answer contains any claim the context does not support.
Respond with exactly one word on the first line: VERIFIED if every claim is supported, or HALLUCINATION_DETECTED if any claim is not.

Context:
%s

Answer to verify:
%s

Judgement:`,

	driven.PromptRegenerate: `You are a clinical trials assistant. A previous answer to this question contained unsupported claims and was discarded. Answer again using ONLY facts stated verbatim in the context below. Do not infer, extrapolate or fill gaps. For anything the context does not state, write "not specified in context".

Context:
%s

Question: %s

Answer:`,

	driven.PromptAnalyze: `You convert questions about clinical trials into structured search filters. The database has these metadata fields: nct_id, conditions, phase (PHASE1, PHASE2, ...), status (RECRUITING, COMPLETED, ...), interventions, start_date, study_type (INTERVENTIONAL, OBSERVATIONAL, ...).
Return a single JSON object with keys: content_search, title_search, conditions, phase, status, interventions, study_type, nct_id, earliest_start_date, latest_start_date.
Populate a filter key ONLY when the question states it explicitly; omit it otherwise. Do not rephrase medical terms you do not recognise. Return only the JSON object.

Question: %s

JSON:`,
}

// basePrompt is the shared preamble for every answer template.
const basePrompt = `You are a clinical trials assistant. Base every statement only on the provided trial context, cite NCT IDs, and never invent facts. `

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.clinrag/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".clinrag", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default
// files. Falls back to the embedded default if the file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the cache, forcing fresh loads on next access.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch starts invalidating the cache whenever a prompt file changes on
// disk, so edits take effect without restarting. Close stops it.
func (s *PromptStore) Watch() error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					logger.Debug("prompt file changed: %s", event.Name)
					s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("prompt watcher: %v", err)
			}
		}
	}()

	return nil
}

// Close stops the file watcher, if one was started.
func (s *PromptStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// initialise creates the prompt directory and writes default files for
// prompts that don't exist yet.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.promptPath(name)
		if _, err := os.Stat(path); err == nil {
			continue // User file exists, leave it alone
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.initErr = fmt.Errorf("write default prompt %q: %w", name, err)
			return
		}
	}
}

// loadFromFile reads a prompt file from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	content, err := os.ReadFile(s.promptPath(name))
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return "", fmt.Errorf("prompt file is empty")
	}
	return prompt, nil
}

// promptPath returns the file path for a prompt name.
func (s *PromptStore) promptPath(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}
