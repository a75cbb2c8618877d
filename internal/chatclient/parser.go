package chatclient

import (
	"encoding/json"
	"log"
	"strings"
)

// StreamParser 增量解析 SSE 风格的事件流
// 支持两种帧格式：标准的空行分隔（每行带 "data: " 前缀），
// 以及遗留的单换行分隔（无前缀）；优先使用空行分帧
// 未成帧的尾部数据会保留到下一次 Feed
type StreamParser struct {
	buf string
}

// NewStreamParser 创建流解析器
func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// Feed 追加一段原始文本并返回其中已完整成帧的事件
// 解析失败的行只记录日志并跳过，不中断整个流
func (p *StreamParser) Feed(chunk string) []StreamEvent {
	p.buf += chunk

	sep := "\n"
	if strings.Contains(p.buf, "\n\n") {
		sep = "\n\n"
	}

	segments := strings.Split(p.buf, sep)
	p.buf = segments[len(segments)-1]

	return p.parseSegments(segments[:len(segments)-1])
}

// Flush 解析缓冲区中剩余的数据，流结束时调用
func (p *StreamParser) Flush() []StreamEvent {
	if p.buf == "" {
		return nil
	}
	segments := strings.Split(p.buf, "\n")
	p.buf = ""
	return p.parseSegments(segments)
}

func (p *StreamParser) parseSegments(segments []string) []StreamEvent {
	var events []StreamEvent
	for _, seg := range segments {
		for _, line := range strings.Split(seg, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")

			var ev StreamEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				log.Printf("chatclient: skip malformed stream line: %v", err)
				continue
			}
			events = append(events, ev)
		}
	}
	return events
}
