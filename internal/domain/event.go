package domain

// Command — вид команды для ответа пользователю.
type Command string

const (
	CommandAdd    Command = "add"
	CommandRemove Command = "remove"
)

// Event — типизированное входящее событие от транспорта (или обратная связь
// диспетчера рассылки). Потребляется координатором команд через канал.
type Event interface {
	event()
}

type NewUser struct {
	ChatID int64
}

type UserUnreachable struct {
	ChatID int64
}

type ArtistAdded struct {
	ChatID   int64
	ArtistID string
}

type ArtistRemoved struct {
	ChatID   int64
	ArtistID string
}

func (NewUser) event()         {}
func (UserUnreachable) event() {}
func (ArtistAdded) event()     {}
func (ArtistRemoved) event()   {}
