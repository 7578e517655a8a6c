package models

// Member представляет участника, разделяющего стоимость одной или
// нескольких подписок. Участники принадлежат пользователю и независимы
// от подписок.
type Member struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"` // Владелец записи об участнике
}

// SubscriptionMember — связь подписки и участника с долей стоимости.
// Share задуман как процент от цены, но сумма долей по подписке
// не проверяется на равенство 100. Уникальности пары
// (подписка, участник) нет: повторное добавление создаёт вторую связь.
type SubscriptionMember struct {
	ID             int     `json:"id"`
	SubscriptionID int     `json:"subscription_id"`
	MemberID       int     `json:"member_id"`
	MemberName     string  `json:"member_name,omitempty"`
	Share          float64 `json:"share"`
}

// DummyMemberShare — элемент списка участников в запросе создания
// подписки: ссылка на существующего участника и его доля.
// Участники в этом пути не создаются, MemberID обязателен.
type DummyMemberShare struct {
	MemberID *int    `json:"member_id" validate:"required"`
	Share    float64 `json:"share" validate:"gte=0"`
}

// DummyAddMember — запрос добавления участника к подписке.
// Участник с таким именем создаётся, если ещё не существует.
type DummyAddMember struct {
	Name  string  `json:"name" validate:"required"`
	Share float64 `json:"share" validate:"gte=0"`
}
