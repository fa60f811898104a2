package router

import (
	"strings"
	"sync"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
)

// Alias is one model-selection rule. Rules are evaluated in declaration
// order and the first match wins, so the slice order is part of the contract.
type Alias struct {
	Key          string
	Model        string
	DeepThinking bool
}

// Registry holds the ordered alias table and the fallback model.
type Registry struct {
	mu           sync.RWMutex
	defaultModel string
	aliases      []Alias
}

func NewRegistry(defaultModel string, aliases []Alias) *Registry {
	return &Registry{
		defaultModel: defaultModel,
		aliases:      aliases,
	}
}

// BuildFromConfig builds the alias registry from the models config.
func BuildFromConfig(models *config.ModelsConfig) *Registry {
	aliases := make([]Alias, 0, len(models.Aliases))
	for _, a := range models.Aliases {
		aliases = append(aliases, Alias{
			Key:          a.Key,
			Model:        a.Model,
			DeepThinking: a.DeepThinking,
		})
	}
	return NewRegistry(models.DefaultModel, aliases)
}

func (r *Registry) DefaultModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultModel
}

// Aliases returns a copy of the alias table in declaration order.
func (r *Registry) Aliases() []Alias {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Alias, len(r.aliases))
	copy(out, r.aliases)
	return out
}

// Lookup finds an alias by exact key (case-insensitive).
func (r *Registry) Lookup(key string) (Alias, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.aliases {
		if strings.EqualFold(a.Key, key) {
			return a, true
		}
	}
	return Alias{}, false
}

// ListTable renders the alias table shown for the "list" command.
func (r *Registry) ListTable() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	b.WriteString("当前支持的模型映射表如下：\n\n")
	b.WriteString("| 简称 | 模型 | 深度思考 |\n|------|----------|--------------|\n")
	for _, a := range r.aliases {
		deep := "否"
		if a.DeepThinking {
			deep = "是"
		}
		b.WriteString("| " + a.Key + " | " + a.Model + " | " + deep + " |\n")
	}
	return b.String()
}
