package processing

import (
	"sort"
	"sync"

	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// TopicInfo holds metadata and traffic counters for a ROS topic
type TopicInfo struct {
	RosTopic    string `json:"ros_topic"`
	MessageType string `json:"message_type"`
	Direction   string `json:"direction"`
	Count       int64  `json:"count"`
	Errors      int64  `json:"errors"`
	LastSeenNs  int64  `json:"last_seen_ns"`
}

// TopicRegistry tracks the topics the keypad publishes to or listens on
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
}

// LoadFromConfig replaces the registry contents with the configured mappings.
// The keypad command topic and the odometry topic are always present.
func (r *TopicRegistry) LoadFromConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.topics
	r.topics = make(map[string]*TopicInfo)

	add := func(topic, msgType, direction string) {
		if topic == "" {
			return
		}
		info := &TopicInfo{RosTopic: topic, MessageType: msgType, Direction: direction}
		// Keep counters across reloads.
		if prev, ok := old[topic]; ok {
			info.Count = prev.Count
			info.Errors = prev.Errors
			info.LastSeenNs = prev.LastSeenNs
		}
		r.topics[topic] = info
	}

	for _, m := range cfg.TopicMappings {
		add(m.RosTopic, m.MessageType, m.Direction)
	}
	if _, ok := cfg.GetTopicMapping(cfg.Keypad.Topic); !ok {
		add(cfg.Keypad.Topic, "geometry_msgs/msg/Twist", config.DirectionOutbound)
	}
	if cfg.Odometry.Enabled {
		if _, ok := cfg.GetTopicMapping(cfg.Odometry.Topic); !ok {
			add(cfg.Odometry.Topic, "nav_msgs/msg/Odometry", config.DirectionInbound)
		}
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// RecordMessage counts a message sent or received on topic.
func (r *TopicRegistry) RecordMessage(topic string, timestampNs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := r.getOrCreate(topic)
	info.Count++
	info.LastSeenNs = timestampNs
}

// RecordError counts a failed send or undecodable message on topic.
func (r *TopicRegistry) RecordError(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getOrCreate(topic).Errors++
}

func (r *TopicRegistry) getOrCreate(topic string) *TopicInfo {
	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{RosTopic: topic}
		r.topics[topic] = info
	}
	return info
}

// GetTopicInfo returns a copy of the entry for topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// GetAllTopics returns a snapshot of every topic, sorted by name
func (r *TopicRegistry) GetAllTopics() []TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TopicInfo, 0, len(r.topics))
	for _, info := range r.topics {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RosTopic < out[j].RosTopic })
	return out
}
