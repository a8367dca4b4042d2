package interfaces

import "github.com/google/uuid"

// RoomBroadcaster рассылает типизированные события всем подключенным
// клиентам комнаты истории, включая инициатора изменения (чтобы его
// оптимистичное локальное состояние сверилось с серверной правдой).
// Реализуется realtime-хабом; сервисы зовут его строго ПОСЛЕ того, как
// мутация надежно сохранена.
//
//go:generate mockery --name RoomBroadcaster --output ./mocks --outpkg mocks --case=underscore
type RoomBroadcaster interface {
	BroadcastToStory(storyID uuid.UUID, event string, payload any)
}
