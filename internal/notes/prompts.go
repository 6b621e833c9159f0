package notes

// extractPrompt pulls the fact to remember out of the raw message.
const extractPrompt = `Тебе дается текст сообщения пользователя.
Сообщение содержит в себе просьбу запомнить какую-либо информацию.
Твоя задача - извлечь информацию, которую необходимо запомнить.
Например: сообщение пользователя "Запомни, мне понравилось вино Кагор".
Твой ответ: Понравилось вино Кагор.
В ответе верни только текст заметки, без лишних вводных.`

// searchPrompt finds the stored note matching the request. The note list is
// attached as a second system message.
const searchPrompt = `Тебе дается текст сообщения пользователя.
В виде контекста тебе также подается список сохраненных заметок.
Твоя задача - найти в списке заметку, которая подходит под запрос пользователя.
В ответе верни только текст подходящей заметки, без лишних вводных.
Например: "Бот, вспомни, какой шоколад мне понравился"
В списке ты находишь заметку "Понравился шоколад Alpen Gold"
Твой ответ: Понравился шоколад Alpen Gold`

// deletePrompt resolves which note the user asks to remove. The reply must
// quote the stored text verbatim, deletion applies by exact match.
const deletePrompt = `Ты профессиональный ассистент для анализа списка заметок.
Тебе предоставляется список заметок и сообщение пользователя.
На основе содержания сообщения пользователя ты должен вернуть заметку, которую пользователь просит удалить.
Хорошо проанализируй список заметок и выбери наиболее подходящую.
Выбранную для удаления заметку верни в формате json по шаблону:
{
"chat_id": <id пользователя>,
"text": "<текст заметки>"
}
В ответе верни заметку в точности, как она записана в списке заметок!`

// changePrompt resolves the note to edit and produces its rewritten text.
const changePrompt = `Ты профессиональный редактор заметок.
Тебе дается текст сообщения пользователя.
В виде контекста тебе также подается список сохраненных заметок.
Твоя задача - найти в списке заметку, которая подходит под запрос пользователя.
Далее тебе нужно выполнить запрос, касаемо текста этой заметки.
Если пользователь говорит что-то дописать, удалить какую-то часть из заметки,
ты должен опираться и на запрос пользователя, и на существующий текст заметки.
В ответе тебе нужно вернуть изначальную заметку и обновленную заметку в формате json по шаблону:
[
{
"chat_id": <id пользователя>,
"text": "<текст заметки>"
},
{
"chat_id": <id пользователя>,
"text": "<обновленный текст заметки>"
}
]
Изначальную заметку верни в точности, как она записана в списке заметок!`
