package config

import (
	"fmt"
)

type ChannelKeyStruct struct{}

func NewChannelKeyStruct() *ChannelKeyStruct {
	return &ChannelKeyStruct{}
}

// PollEventsChannel returns the Redis PubSub channel name carrying all
// lifecycle events for one poll.
func (r *ChannelKeyStruct) PollEventsChannel(pollID string) string {
	return fmt.Sprintf("poll:%s:events", pollID)
}

var ChannelKey = NewChannelKeyStruct()
