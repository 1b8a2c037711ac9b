package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/interaction"
)

// Installer receives parsed recipes. The engine implements it.
type Installer interface {
	AddRecipe(ctx context.Context, r Recipe) error
}

// Loader reads recipe definitions from a directory and installs them into
// an engine.
type Loader struct {
	validator *Validator
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithValidator enables schema validation of every document. A nil
// validator leaves validation off.
func WithValidator(validator *Validator) LoaderOption {
	return func(l *Loader) {
		l.validator = validator
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader. Validation is off until WithValidator is
// supplied.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("service", "recipe-loader")

	return l
}

// LoadAll reads every *.json, *.yaml and *.yml file in dir (non-recursive,
// filename order, dotfiles skipped), validates each document, checks that
// referenced interactions exist in registry and installs the recipes into
// installer. The first failure aborts the load. A nil registry is treated
// as empty, so any interaction reference fails. Returns how many recipes
// were installed.
//
// An empty directory is valid and loads nothing; a missing or unreadable
// directory is a fatal error.
func (l *Loader) LoadAll(
	ctx context.Context,
	dir string,
	installer Installer,
	registry *interaction.Registry,
) (int, error) {
	if installer == nil {
		return 0, errors.WrapFatal(
			errors.ErrInvalidConfig, "RecipeLoader", "LoadAll", "installer validation")
	}
	if registry == nil {
		registry = interaction.EmptyRegistry()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.WrapFatal(err, "RecipeLoader", "LoadAll", "recipe directory read")
	}

	names := recipeFiles(entries)
	if len(names) == 0 {
		l.logger.Warn("No recipe definitions found", "directory", dir)
		return 0, nil
	}

	count := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return count, errors.Wrap(err, "RecipeLoader", "LoadAll", "load interrupted")
		}

		r, err := l.loadFile(filepath.Join(dir, name), name, registry)
		if err != nil {
			return count, err
		}

		if err := installer.AddRecipe(ctx, r); err != nil {
			return count, errors.Wrap(err, "RecipeLoader", "LoadAll", "recipe installation")
		}
		count++

		l.logger.Info("Recipe loaded", "file", name, "id", r.ID, "name", r.Name)
	}

	l.logger.Info("Recipe loading complete", "directory", dir, "recipes", count)

	return count, nil
}

func (l *Loader) loadFile(path, name string, registry *interaction.Registry) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, errors.WrapFatal(err, "RecipeLoader", "LoadAll", "recipe file read")
	}

	document, err := normalizeDocument(name, data)
	if err != nil {
		return Recipe{}, errors.WrapInvalid(
			fmt.Errorf("recipe file '%s': %w", name, err),
			"RecipeLoader", "LoadAll", "recipe parse")
	}

	if l.validator != nil {
		if err := l.validator.Validate(document); err != nil {
			return Recipe{}, errors.WrapInvalid(
				fmt.Errorf("recipe file '%s': %w", name, err),
				"RecipeLoader", "LoadAll", "recipe validation")
		}
	}

	var r Recipe
	if err := json.Unmarshal(document, &r); err != nil {
		return Recipe{}, errors.WrapInvalid(
			fmt.Errorf("recipe file '%s': %w", name, err),
			"RecipeLoader", "LoadAll", "recipe decode")
	}
	r.Raw = document

	if r.ID == "" {
		return Recipe{}, errors.WrapInvalid(
			fmt.Errorf("recipe file '%s': %w: missing id", name, errors.ErrRecipeInvalid),
			"RecipeLoader", "LoadAll", "recipe id check")
	}

	for _, interactionName := range r.Interactions {
		if _, ok := registry.Get(interactionName); !ok {
			return Recipe{}, errors.WrapInvalid(
				fmt.Errorf("recipe '%s' references unknown interaction '%s'", r.ID, interactionName),
				"RecipeLoader", "LoadAll", "interaction reference check")
		}
	}

	return r, nil
}

// recipeFiles selects the loadable entries. os.ReadDir returns entries in
// filename order, which fixes the load order.
func recipeFiles(entries []os.DirEntry) []string {
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json", ".yaml", ".yml":
			names = append(names, name)
		}
	}
	return names
}

// normalizeDocument converts YAML documents to JSON so validation and
// decoding share one path. JSON documents pass through untouched.
func normalizeDocument(filename string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("yaml conversion: %w", err)
		}
		return converted, nil
	default:
		return data, nil
	}
}
