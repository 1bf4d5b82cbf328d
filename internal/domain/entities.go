package domain

import "time"

// Message представляет одну строку журнала канала. Записи неизменяемы:
// журнал только дополняется, удаления не предусмотрены.
type Message struct {
	ID        int64
	ChannelID int64
	Timestamp time.Time
	Nick      string
	Text      string
	Command   string
	Host      string
	Raw       string
	CreatedAt time.Time
}

// Команды, скрываемые из журнала каналов с включённым фильтром служебных событий.
var HiddenCommands = []string{"JOIN", "PART", "QUIT", "NICK", "TOPIC"}

// Channel описывает канал, журнал которого хранится в архиве.
type Channel struct {
	ID             int64
	Slug           string
	Name           string
	IsPublic       bool
	HideJoinsParts bool
	CreatedAt      time.Time
}

// LogLine — сырая строка из файрхоза бота до разбора и сохранения.
type LogLine struct {
	Channel    string    `json:"channel"`
	Nick       string    `json:"nick"`
	Command    string    `json:"command"`
	Text       string    `json:"text"`
	Host       string    `json:"host"`
	Raw        string    `json:"raw"`
	ReceivedAt time.Time `json:"received_at"`
}

// PermalinkTarget — постоянный адрес сообщения: день, страница и якорь.
type PermalinkTarget struct {
	Date      time.Time `json:"date"`
	Page      int       `json:"page"`
	MessageID int64     `json:"message_id"`
}

// MissedActivity — сообщения, пропущенные пользователем между выходом и возвращением.
type MissedActivity struct {
	Messages   []Message
	FetchAfter time.Time
}
