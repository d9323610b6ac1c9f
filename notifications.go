package mempool

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various mempool events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	NTTxAccepted NotificationType = iota
	NTTxRemoved
)

var notificationTypeStrings = map[NotificationType]string{
	NTTxAccepted: "NTTxAccepted",
	NTTxRemoved:  "NTTxRemoved",
}

func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return "invalid"
}

// NTTxAcceptedData is the Notification.Data payload for NTTxAccepted.
type NTTxAcceptedData struct {
	Entry *TxEntry
}

// NTTxRemovedData is the Notification.Data payload for NTTxRemoved.
type NTTxRemovedData struct {
	Entry  *TxEntry
	Reason RemovalReason
}

// Notification is sent to every subscribed callback and consists of a
// notification type as well as associated data that depends on the type:
//   - NTTxAccepted: *NTTxAcceptedData
//   - NTTxRemoved:  *NTTxRemovedData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe registers callback to receive future notifications. Grounded
// on the reference package's own notifications.go.
func (mp *TxMempool) Subscribe(callback NotificationCallback) {
	mp.notificationsLock.Lock()
	mp.notifications = append(mp.notifications, callback)
	mp.notificationsLock.Unlock()
}

// sendNotification fires every subscribed callback in turn. Called from
// inside the pool's critical section, after the state transition that
// triggered it, per SPEC_FULL §5 — callbacks must not re-enter the pool
// on the same goroutine, and must not panic: a panicking observer is
// recovered and logged rather than allowed to unwind through the pool.
func (mp *TxMempool) sendNotification(typ NotificationType, data interface{}) {
	n := Notification{Type: typ, Data: data}

	mp.notificationsLock.RLock()
	callbacks := mp.notifications
	mp.notificationsLock.RUnlock()

	for _, callback := range callbacks {
		mp.dispatchOne(callback, &n)
	}
}

func (mp *TxMempool) dispatchOne(callback NotificationCallback, n *Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("mempool notification callback panicked: %v", r)
		}
	}()
	callback(n)
}
