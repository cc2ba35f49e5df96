package ws

import (
	"sync"
)

// Registry отслеживает членство соединений в комнатах.
// Единственная синхронизированная структура на процесс; идентификатор
// комнаты - это id случая или service.RoomGlobal.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe добавляет клиента в комнату. Повторная подписка на ту же
// комнату - no-op: количество членов не удваивается.
func (r *Registry) Subscribe(client *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[roomID] = room
	}
	room[client] = struct{}{}
}

// Unsubscribe убирает клиента из комнаты; пустая комната удаляется
func (r *Registry) Unsubscribe(client *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}

// DisconnectAll убирает клиента из всех комнат; вызывается при закрытии соединения
func (r *Registry) DisconnectAll(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID, room := range r.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// MembersOf возвращает снимок членов комнаты на момент вызова.
// Снимок позволяет рассылке не держать блокировку во время записи в сокеты.
func (r *Registry) MembersOf(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	members := make([]*Client, 0, len(room))
	for client := range room {
		members = append(members, client)
	}
	return members
}

// MemberCount возвращает количество членов комнаты
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
