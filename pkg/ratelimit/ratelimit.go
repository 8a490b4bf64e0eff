// Package ratelimit loads sentinel flow rules for the write-heavy endpoints.
package ratelimit

import (
	"fmt"
	"log"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
)

// 定义资源名称
const (
	ResOrderCreate = "order_create"
	ResRegister    = "user_register"
)

// Rule limits one resource to QPS requests per second, rejecting the rest.
type Rule struct {
	Resource string
	QPS      float64
}

// Init starts sentinel and loads rules. Rules with a non-positive QPS are skipped.
func Init(rules ...Rule) error {
	if err := sentinel.InitDefault(); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}

	var flowRules []*flow.Rule
	for _, r := range rules {
		if r.QPS <= 0 {
			continue
		}
		flowRules = append(flowRules, &flow.Rule{
			Resource:               r.Resource,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              r.QPS,
			StatIntervalInMs:       1000,
		})
		log.Printf("[RateLimit] %s limited to %.0f QPS", r.Resource, r.QPS)
	}
	if _, err := flow.LoadRules(flowRules); err != nil {
		return fmt.Errorf("load sentinel rules: %w", err)
	}
	return nil
}

// Allow takes one token for resource. When it returns true the caller must call the
// returned exit func once the request is done.
func Allow(resource string) (exit func(), ok bool) {
	e, blocked := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
	if blocked != nil {
		return nil, false
	}
	return func() { e.Exit() }, true
}
