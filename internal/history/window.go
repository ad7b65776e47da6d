package history

import "github.com/Balaji-1206/CareSync-sub000/internal/models"

// Window 患者历史快照的固定容量环形缓冲区
//
// 每个调度周期追加一条记录，超出容量时覆盖最旧的一条（FIFO）。
// 窗口由对应患者的调度任务独占读写，不需要加锁。
type Window struct {
	entries []models.HistoryEntry
	start   int // 最旧记录的下标
	count   int
}

// NewWindow 创建容量为 capacity 的历史窗口
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		entries: make([]models.HistoryEntry, capacity),
	}
}

// Append 追加一条记录，容量已满时淘汰最旧的一条
func (w *Window) Append(entry models.HistoryEntry) {
	if w.count < len(w.entries) {
		w.entries[(w.start+w.count)%len(w.entries)] = entry
		w.count++
		return
	}
	w.entries[w.start] = entry
	w.start = (w.start + 1) % len(w.entries)
}

// Len 当前记录数
func (w *Window) Len() int {
	return w.count
}

// Cap 窗口容量
func (w *Window) Cap() int {
	return len(w.entries)
}

// Entries 按时间顺序（最旧在前）返回所有记录的副本
func (w *Window) Entries() []models.HistoryEntry {
	out := make([]models.HistoryEntry, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.entries[(w.start+i)%len(w.entries)]
	}
	return out
}

// Clear 清空窗口（调度任务停止时调用）
func (w *Window) Clear() {
	w.start = 0
	w.count = 0
}
