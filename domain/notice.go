package domain

// Notices shown to the user after an action.
const (
	NoticeEmptyTask      = "ALERTA! O campo precisa ser preenchido"
	NoticeEmptyComment   = "ALERTA! O campo precisa ser preenchido!!"
	NoticeTaskCreated    = "Tarefa adicionada com sucesso!"
	NoticeTaskDeleted    = "Tarefa excluída com sucesso!"
	NoticeCommentCreated = "Comentário concluído com sucesso!"
	NoticeCommentDeleted = "Comentário excluído com sucesso!"
)
