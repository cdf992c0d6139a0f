package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Accumulator assembles a [Message] from stream events. The zero value is
// ready to use.
type Accumulator struct {
	msg    Message
	blocks map[int]*blockState
	done   bool
}

// blockState tracks a content block being assembled.
type blockState struct {
	block       ContentBlock
	textBuf     strings.Builder
	thinkingBuf strings.Builder
	inputBuf    strings.Builder
}

// Add folds ev into the message.
func (a *Accumulator) Add(ev Event) error {
	if a.blocks == nil {
		a.blocks = make(map[int]*blockState)
	}

	switch ev := ev.(type) {
	case MessageStart:
		content := a.msg.Content
		a.msg = ev.Message
		a.msg.Content = content
	case ContentBlockStart:
		if ev.Index < 0 {
			return fmt.Errorf("anthropic: invalid block index %d", ev.Index)
		}
		a.blocks[ev.Index] = &blockState{block: ev.ContentBlock}
		a.grow(ev.Index)
		a.msg.Content[ev.Index] = ev.ContentBlock
	case ContentBlockDelta:
		bs := a.blocks[ev.Index]
		if bs == nil {
			return fmt.Errorf("anthropic: delta for unknown block index %d", ev.Index)
		}
		switch ev.Delta.Type {
		case DeltaText:
			bs.textBuf.WriteString(ev.Delta.Text)
			bs.block.Text = bs.textBuf.String()
		case DeltaThinking:
			bs.thinkingBuf.WriteString(ev.Delta.Thinking)
			bs.block.Thinking = bs.thinkingBuf.String()
		case DeltaSignature:
			bs.block.Signature += ev.Delta.Signature
		case DeltaInputJSON:
			bs.inputBuf.WriteString(ev.Delta.PartialJSON)
		}
		a.msg.Content[ev.Index] = bs.block
	case ContentBlockStop:
		bs := a.blocks[ev.Index]
		if bs == nil {
			return fmt.Errorf("anthropic: stop for unknown block index %d", ev.Index)
		}
		if bs.block.Type == BlockToolUse && bs.inputBuf.Len() > 0 {
			bs.block.Input = json.RawMessage(bs.inputBuf.String())
		}
		if bs.block.Type == BlockToolUse && len(bs.block.Input) == 0 {
			bs.block.Input = json.RawMessage("{}")
		}
		a.msg.Content[ev.Index] = bs.block
	case MessageDelta:
		if ev.StopReason != "" {
			a.msg.StopReason = ev.StopReason
		}
		if ev.StopSequence != nil {
			a.msg.StopSequence = ev.StopSequence
		}
		a.msg.Usage.OutputTokens = ev.Usage.OutputTokens
		if ev.Usage.InputTokens != nil {
			a.msg.Usage.InputTokens = *ev.Usage.InputTokens
		}
		if ev.Usage.CacheCreationInputTokens != nil {
			a.msg.Usage.CacheCreationInputTokens = ev.Usage.CacheCreationInputTokens
		}
		if ev.Usage.CacheReadInputTokens != nil {
			a.msg.Usage.CacheReadInputTokens = ev.Usage.CacheReadInputTokens
		}
	case MessageStop:
		a.done = true
	case Ping:
	}
	return nil
}

// Message returns the message assembled so far.
func (a *Accumulator) Message() Message {
	return a.msg
}

// Done reports whether message_stop was seen.
func (a *Accumulator) Done() bool {
	return a.done
}

// grow extends the content slice to hold index.
func (a *Accumulator) grow(index int) {
	for len(a.msg.Content) <= index {
		a.msg.Content = append(a.msg.Content, ContentBlock{})
	}
}
