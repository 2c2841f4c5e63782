package runtime

import "strings"

// Messages holds every text the engine emits on its own behalf.
// Node configuration wins over these defaults where a node defines the text.
type Messages struct {
	NotPublished  string
	FlowReady     string
	FlowLoaded    string
	Misconfigured string

	InvalidOptionPrefix string
	OptionsHint         string

	DefaultMessage       string
	DefaultOptionsPrompt string
	DefaultFarewell      string
	DefaultHandoff       string
	DefaultNoAgent       string

	SalePrompt           string
	SaleUnavailableLabel string
	SaleHint             string
	SaleCustomNamePrompt string
	SaleEmptyName        string
	// SaleStockConfirmation and SaleRequestConfirmation accept the
	// placeholders {item}, {price} and {protocol}.
	SaleStockConfirmation   string
	SaleRequestConfirmation string
	InventoryUnavailable    string
	RegistrationFailed      string

	SchedulePrompt       string
	ScheduleCancelLabel  string
	ScheduleConfirmation string // accepts {slot}
	ScheduleCancelled    string
	ScheduleNoSlots      string
}

// DefaultMessages returns the stock pt-BR texts of the chat widget.
func DefaultMessages() Messages {
	return Messages{
		NotPublished: "Nenhum fluxo foi configurado ou executado.\n\n" +
			"Por favor, acesse o painel administrativo e:\n1. Crie um fluxo\n2. Clique em 'Salvar'\n3. Clique em 'Executar'",
		FlowReady:     "Olá! Fluxo carregado e pronto para uso.\n\nDigite qualquer mensagem para começar!",
		FlowLoaded:    "Um novo fluxo foi carregado e a conversa foi reiniciada.\n\nDigite qualquer mensagem para começar!",
		Misconfigured: "Fluxo não está configurado corretamente. A conversa foi reiniciada.",

		InvalidOptionPrefix: "Opção inválida! ",
		OptionsHint:         "Digite apenas o número da opção (1, 2, 3...)",

		DefaultMessage:       "Mensagem não configurada",
		DefaultOptionsPrompt: "Escolha uma opção:",
		DefaultFarewell:      "Conversa finalizada. Obrigado!",
		DefaultHandoff:       "Transferindo você para um atendente humano...\n\nAguarde um momento que alguém da nossa equipe entrará em contato!",
		DefaultNoAgent:       "No momento não há atendentes disponíveis. Por favor, tente novamente mais tarde.",

		SalePrompt:              "Confira as peças disponíveis:",
		SaleUnavailableLabel:    "Não encontrei o item que procuro",
		SaleHint:                "Digite o número do item desejado ou 0 se não encontrou o que procura.",
		SaleCustomNamePrompt:    "Qual item você procura? Digite o nome da peça.",
		SaleEmptyName:           "Por favor, informe o nome do item.",
		SaleStockConfirmation:   "Pedido registrado! {item} por {price}. Protocolo: {protocol}. Você tem 3 dias para retirar.",
		SaleRequestConfirmation: "Solicitação registrada! Vamos procurar \"{item}\" e entraremos em contato em até 7 dias. Protocolo: {protocol}.",
		InventoryUnavailable:    "Não foi possível consultar o estoque agora. Envie qualquer mensagem para tentar novamente.",
		RegistrationFailed:      "Não foi possível registrar seu pedido agora. Tente novamente.",

		SchedulePrompt:       "Escolha um horário:",
		ScheduleCancelLabel:  "Cancelar",
		ScheduleConfirmation: "Agendamento confirmado para {slot}!",
		ScheduleCancelled:    "Agendamento cancelado.",
		ScheduleNoSlots:      "Não há horários disponíveis no momento.",
	}
}

// merge fills empty fields of m from d.
func (m Messages) merge(d Messages) Messages {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.NotPublished, d.NotPublished)
	fill(&m.FlowReady, d.FlowReady)
	fill(&m.FlowLoaded, d.FlowLoaded)
	fill(&m.Misconfigured, d.Misconfigured)
	fill(&m.InvalidOptionPrefix, d.InvalidOptionPrefix)
	fill(&m.OptionsHint, d.OptionsHint)
	fill(&m.DefaultMessage, d.DefaultMessage)
	fill(&m.DefaultOptionsPrompt, d.DefaultOptionsPrompt)
	fill(&m.DefaultFarewell, d.DefaultFarewell)
	fill(&m.DefaultHandoff, d.DefaultHandoff)
	fill(&m.DefaultNoAgent, d.DefaultNoAgent)
	fill(&m.SalePrompt, d.SalePrompt)
	fill(&m.SaleUnavailableLabel, d.SaleUnavailableLabel)
	fill(&m.SaleHint, d.SaleHint)
	fill(&m.SaleCustomNamePrompt, d.SaleCustomNamePrompt)
	fill(&m.SaleEmptyName, d.SaleEmptyName)
	fill(&m.SaleStockConfirmation, d.SaleStockConfirmation)
	fill(&m.SaleRequestConfirmation, d.SaleRequestConfirmation)
	fill(&m.InventoryUnavailable, d.InventoryUnavailable)
	fill(&m.RegistrationFailed, d.RegistrationFailed)
	fill(&m.SchedulePrompt, d.SchedulePrompt)
	fill(&m.ScheduleCancelLabel, d.ScheduleCancelLabel)
	fill(&m.ScheduleConfirmation, d.ScheduleConfirmation)
	fill(&m.ScheduleCancelled, d.ScheduleCancelled)
	fill(&m.ScheduleNoSlots, d.ScheduleNoSlots)
	return m
}

// expand replaces {key} placeholders.
func expand(template string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
