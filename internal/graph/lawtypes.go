// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import "strings"

// OtherTypeID is assigned when a document's type name is not in the
// mapping table.
const OtherTypeID = "OTHER"

// lawTypes maps official Portuguese document type names to stable type
// identifiers. Order matters: the first entry for an identifier is its
// canonical name, used when composing official numbers. English aliases
// sit at the end so metadata extracted from translated sources still
// resolves.
var lawTypes = []struct {
	Name string
	ID   string
}{
	{"Constituição", "CONSTITUTION"},
	{"Carta Constitucional", "CARTA_CONSTITUCIONAL"},
	{"Revisão Constitucional", "CONSTITUTIONAL_REVISION"},
	{"Lei Constitucional", "LEI_CONSTITUCIONAL"},
	{"Lei Orgânica", "LEI_ORGANICA"},
	{"Lei", "LEI"},
	{"Decreto-Lei", "DECRETO_LEI"},
	{"Decreto Legislativo Regional", "DECRETO_LEGISLATIVO_REGIONAL"},
	{"Decreto Regional", "DECRETO_REGIONAL"},
	{"Decreto Regulamentar Regional", "DECRETO_REGULAMENTAR_REGIONAL"},
	{"Decreto Regulamentar", "DECRETO_REGULAMENTAR"},
	{"Decreto do Governo", "DECRETO_GOVERNO"},
	{"Decreto do Presidente da República", "DECRETO_PR"},
	{"Decreto de Aprovação da Constituição", "DECRETO_APROVACAO_CONSTITUICAO"},
	{"Decreto", "DECRETO"},
	{"Portaria", "PORTARIA"},
	{"Despacho Conjunto", "DESPACHO_CONJUNTO"},
	{"Despacho Normativo", "DESPACHO_NORMATIVO"},
	{"Despacho", "DESPACHO"},
	{"Aviso do Banco de Portugal", "AVISO_BP"},
	{"Aviso", "AVISO"},
	{"Edital", "EDITAL"},
	{"Alvará", "ALVARA"},
	{"Resolução da Assembleia da República", "RESOLUCAO_AR"},
	{"Resolução do Conselho de Ministros", "RESOLUCAO_CM"},
	{"Resolução", "RESOLUCAO"},
	{"Acórdão do Tribunal Constitucional", "ACORDAO_TC"},
	{"Acórdão do Supremo Tribunal de Justiça", "ACORDAO_STJ"},
	{"Acórdão do Supremo Tribunal Administrativo", "ACORDAO_STA"},
	{"Acórdão do Tribunal de Contas", "ACORDAO_T_CONTAS"},
	{"Acórdão doutrinário", "ACORDAO_DOUTRINARIO"},
	{"Acórdão", "ACORDAO"},
	{"Assento", "ASSENTO"},
	{"Tratado", "TRATADO"},
	{"Convenção", "CONVENCAO"},
	{"Acordo", "ACORDO"},
	{"Protocolo", "PROTOCOLO"},
	{"Protocolo de acordo", "PROTOCOLO"},
	{"Regulamento", "REGULAMENTO"},
	{"Regimento", "REGIMENTO"},
	{"Instrução", "INSTRUCAO"},
	{"Circular", "CIRCULAR"},
	{"Deliberação", "DELIBERACAO"},
	{"Decisão", "DECISAO"},
	{"Declaração de Retificação", "DECLARACAO_RETIFICACAO"},
	{"Declaração", "DECLARACAO"},
	{"Errata", "ERRATA"},
	{"Comunicação", "COMUNICACAO"},
	{"Anúncio", "ANUNCIO"},
	{"Moção de Confiança", "MOCAO_CONFIANCA"},
	{"Moção de Censura", "MOCAO_CENSURA"},
	{"Moção", "MOCAO"},
	{"Parecer", "PARECER"},
	{"Programa", "PROGRAMA"},
	{"Carta de Adesão", "CARTA_ADESAO"},
	{"Carta de Ratificação", "CARTA_RATIFICACAO"},
	{"Contrato", "CONTRATO"},
	{"Aditamento", "ADITAMENTO"},
	{"Alteração", "ALTERACAO"},
	{"Lista", "LISTA"},
	{"Mapa Oficial", "MAPA_OFICIAL"},
	{"Mapa", "MAPA"},

	{"Constitution", "CONSTITUTION"},
	{"Decree-Law", "DECRETO_LEI"},
	{"Law", "LEI"},
	{"Ordinance", "PORTARIA"},
	{"Resolution", "RESOLUCAO"},
	{"Regulation", "REGULAMENTO"},
	{"Treaty", "TRATADO"},
	{"Agreement", "ACORDO"},
}

var (
	lawTypeByName = map[string]string{}
	lawTypeName   = map[string]string{}
)

func init() {
	for _, lt := range lawTypes {
		key := normalizeTypeName(lt.Name)
		if _, ok := lawTypeByName[key]; !ok {
			lawTypeByName[key] = lt.ID
		}
		if _, ok := lawTypeName[lt.ID]; !ok {
			lawTypeName[lt.ID] = lt.Name
		}
	}
}

// normalizeTypeName lowercases and collapses whitespace for lookups.
func normalizeTypeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// TypeID resolves a document type name to its identifier. The second
// return is false when the name is unknown and OTHER was assigned.
func TypeID(name string) (string, bool) {
	id, ok := lawTypeByName[normalizeTypeName(name)]
	if !ok {
		return OtherTypeID, false
	}
	return id, true
}

// TypeName returns the canonical Portuguese name for a type identifier.
func TypeName(id string) (string, bool) {
	name, ok := lawTypeName[id]
	return name, ok
}
