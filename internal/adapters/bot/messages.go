package bot

const (
	msgWelcome          = "Добро пожаловать, %s! Отправьте мне код, и я пришлю контент."
	msgSubscribePrompt  = "Чтобы пользоваться ботом, подпишитесь на каналы:"
	msgCheckButton      = "Проверить подписку"
	msgChannelButton    = "Канал %d"
	msgSubscribed       = "Вы подписаны на все каналы! Отправьте мне код."
	msgNotSubscribed    = "Пожалуйста, сначала подпишитесь на все каналы!"
	msgCodeNotFound     = "К сожалению, контента с таким кодом нет."
	msgDeliveryFailed   = "Не удалось отправить контент. Попробуйте позже."
	msgUnknownCommand   = "Неизвестная команда."
	msgNoUser           = "Не удалось определить пользователя"
	msgUnauthorized     = "У вас нет прав на эту команду."
	msgStorageDown      = "Хранилище недоступно, попробуйте позже."
	msgServiceDown      = "Сервис временно недоступен, попробуйте позже."
	msgInternalError    = "Что-то пошло не так. Попробуйте позже."
	msgStatHeader       = "📊 Статистика бота:\n👤 Пользователей: %d\n🎬 Единиц контента: %d"
	msgStatChannel      = "\n📌 Канал с контентом: %s"
	msgTopEmpty         = "Пока ничего не просмотрено."
	msgTopHeader        = "Самое популярное:"
	msgTopLine          = "%d. %s - %s (%d просмотров)"
	msgUsersEmpty       = "Пользователей пока нет."
	msgUsersHeader      = "Все пользователи:"
	msgUsersLine        = "ID: %d, Username: %s, Name: %s"
	msgChannelsEmpty    = "Каналов пока нет."
	msgChannelsHeader   = "Каналы:"
	msgAddUsage         = "Укажите ссылку на канал. Пример: /addchannel https://t.me/channel_name"
	msgRemoveUsage      = "Укажите ссылку на канал. Пример: /removechannel https://t.me/channel_name"
	msgBadChannelURL    = "Ссылка должна начинаться с https://t.me/ и содержать имя канала. Пример: https://t.me/channel_name"
	msgChannelAdded     = "Канал добавлен: %s"
	msgChannelExists    = "Канал уже есть в списке."
	msgChannelRemoved   = "Канал удалён: %s"
	msgChannelMissing   = "Этого канала нет в списке."
	msgAdminContact     = "Связь с администратором: %s"
	msgNoAdminContact   = "Контакт администратора не указан."
	msgBroadcastUsage   = "Ответьте командой /broadcast на сообщение или медиа, которое нужно разослать."
	msgBroadcastEmpty   = "Это сообщение нельзя разослать: нет текста или медиа."
	msgBroadcastRepeat  = "Эта рассылка уже запущена."
	msgBroadcastDone    = "Рассылка доставлена: %d из %d."
	msgBroadcastFailed  = "Не удалось доставить пользователям: %s"
	msgBroadcastNoUsers = "Нет пользователей для рассылки."
)

const adminHelp = `Команды администратора:
/start - запуск бота
/stat - статистика
/top - самый популярный контент
/users - список пользователей
/addchannel <ссылка> - добавить обязательный канал
/removechannel <ссылка> - убрать канал
/channels - список каналов
/broadcast - разослать сообщение (ответом на него)
/admin - эта справка`
