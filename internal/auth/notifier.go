package auth

import "sync"

// IdentityNone はサインインしているユーザーがいないことを表す識別子。
const IdentityNone = ""

// IdentityNotifier はサインイン・サインアウト・セッション失効による
// 現在のユーザー識別子の変化を購読者へ通知する。
// 購読解除ハンドルを返すことで、呼び出し側のライフサイクルを跨いだ
// 購読リークを防ぐ。
type IdentityNotifier struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(identityID string)
}

// NewIdentityNotifier はIdentityNotifierを生成する。
func NewIdentityNotifier() *IdentityNotifier {
	return &IdentityNotifier{
		subscribers: make(map[int]func(identityID string)),
	}
}

// Subscribe は識別子変化の購読者を登録し、購読解除関数を返す。
// 購読解除関数は複数回呼んでも安全。
func (n *IdentityNotifier) Subscribe(fn func(identityID string)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers, id)
	}
}

// Notify は全購読者に現在の識別子を通知する。
// サインアウト時はIdentityNoneを渡す。
// 通知中に登録された購読者へは次回以降の通知から配信される。
func (n *IdentityNotifier) Notify(identityID string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(identityID)
	}
}

// SubscriberCount は現在の購読者数を返す。テスト用。
func (n *IdentityNotifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}
